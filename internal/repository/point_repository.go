package repository

import (
	"database/sql"
	"fmt"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
)

// PointRepository handles database operations for plotted points
type PointRepository struct {
	db *sql.DB
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *sql.DB) *PointRepository {
	return &PointRepository{db: db}
}

// Create inserts a new point
func (r *PointRepository) Create(p *models.Point) error {
	query := `
		INSERT INTO points (
			id, action, intent, x, y, x_min, x_max, y_min, y_max,
			label, mode, show_uncertainty, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		p.ID,
		p.Action,
		p.Intent,
		p.X,
		p.Y,
		p.XMin,
		p.XMax,
		p.YMin,
		p.YMax,
		p.Label,
		p.Mode,
		p.ShowUncertainty,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create point: %w", err)
	}

	return nil
}

// GetByID retrieves a point by ID
func (r *PointRepository) GetByID(id string) (*models.Point, error) {
	query := selectColumns + ` FROM points WHERE id = ?`

	p := &models.Point{}
	err := scanPoint(r.db.QueryRow(query, id), p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}
	return p, nil
}

// List returns all points in insertion order
func (r *PointRepository) List() ([]*models.Point, error) {
	query := selectColumns + ` FROM points ORDER BY rowid ASC`
	return r.queryPoints(query)
}

// ListRecent returns the most recently added points first, up to limit
func (r *PointRepository) ListRecent(limit int) ([]*models.Point, error) {
	query := selectColumns + ` FROM points ORDER BY rowid DESC LIMIT ?`
	return r.queryPoints(query, limit)
}

// Count returns the number of stored points
func (r *PointRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM points").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// Delete removes a point by ID. Returns false when no row matched.
func (r *PointRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM points WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete point: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteAll removes every point and returns how many were removed
func (r *PointRepository) DeleteAll() (int64, error) {
	result, err := r.db.Exec("DELETE FROM points")
	if err != nil {
		return 0, fmt.Errorf("failed to clear points: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

// ToggleUncertainty flips the show_uncertainty flag of one point. Coordinates
// and bounds are untouched. Returns false when no row matched.
func (r *PointRepository) ToggleUncertainty(id string) (bool, error) {
	result, err := r.db.Exec(
		"UPDATE points SET show_uncertainty = NOT show_uncertainty WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle uncertainty: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

const selectColumns = `
	SELECT id, action, intent, x, y, x_min, x_max, y_min, y_max,
		   label, mode, show_uncertainty, created_at
`

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPoint(row rowScanner, p *models.Point) error {
	return row.Scan(
		&p.ID,
		&p.Action,
		&p.Intent,
		&p.X,
		&p.Y,
		&p.XMin,
		&p.XMax,
		&p.YMin,
		&p.YMax,
		&p.Label,
		&p.Mode,
		&p.ShowUncertainty,
		&p.CreatedAt,
	)
}

func (r *PointRepository) queryPoints(query string, args ...interface{}) ([]*models.Point, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	points := make([]*models.Point, 0)
	for rows.Next() {
		p := &models.Point{}
		if err := scanPoint(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
