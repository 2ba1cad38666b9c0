package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
)

// CacheRepository handles database operations for the judgement cache.
// The cache holds only y-axis verdicts; x values are never stored.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get retrieves the cache entry for a key, or nil when absent
func (r *CacheRepository) Get(key string) (*models.CacheEntry, error) {
	query := `SELECT key, y, y_min, y_max, created_at FROM judgement_cache WHERE key = ?`

	e := &models.CacheEntry{}
	err := r.db.QueryRow(query, key).Scan(&e.Key, &e.Y, &e.YMin, &e.YMax, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return e, nil
}

// Put stores a y-axis verdict under a key. An existing entry is left in place;
// the first observed value for a key wins until the cache is cleared.
func (r *CacheRepository) Put(key string, y float64, yMin, yMax *float64) error {
	query := `
		INSERT INTO judgement_cache (key, y, y_min, y_max, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING
	`

	if _, err := r.db.Exec(query, key, y, yMin, yMax, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// Keys returns all cache keys, most recent first
func (r *CacheRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM judgement_cache ORDER BY rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query cache keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Count returns the number of cached entries
func (r *CacheRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM judgement_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Clear removes every cache entry and returns how many were removed
func (r *CacheRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM judgement_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
