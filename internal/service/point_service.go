package service

import (
	"errors"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
	"github.com/moralgraph/moralgraph-backend-go/internal/repository"
	"github.com/moralgraph/moralgraph-backend-go/internal/stats"
)

// ErrPointNotFound is returned when an operation targets an unknown point ID.
var ErrPointNotFound = errors.New("point not found")

// PointSummary is the most-recent-first listing with distribution figures
// over every stored point.
type PointSummary struct {
	Total       int             `json:"total"`
	Points      []*models.Point `json:"points"`
	MeanX       float64         `json:"mean_x"`
	MeanY       float64         `json:"mean_y"`
	StdDevX     float64         `json:"stddev_x"`
	StdDevY     float64         `json:"stddev_y"`
	Correlation float64         `json:"correlation"`
}

// PointService handles point store business logic
type PointService struct {
	repo *repository.PointRepository
}

// NewPointService creates a new point service
func NewPointService(repo *repository.PointRepository) *PointService {
	return &PointService{repo: repo}
}

// List returns all points in insertion order
func (s *PointService) List() ([]*models.Point, error) {
	return s.repo.List()
}

// Summary returns the most recent points first plus aggregate figures. The
// correlation is between intent purity (x) and action weight (y) across the
// whole store.
func (s *PointService) Summary(limit int) (*PointSummary, error) {
	all, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.ListRecent(limit)
	if err != nil {
		return nil, err
	}

	xs := make([]float64, len(all))
	ys := make([]float64, len(all))
	for i, p := range all {
		xs[i] = p.X
		ys[i] = p.Y
	}

	return &PointSummary{
		Total:       len(all),
		Points:      recent,
		MeanX:       stats.Mean(xs),
		MeanY:       stats.Mean(ys),
		StdDevX:     stats.StdDev(xs),
		StdDevY:     stats.StdDev(ys),
		Correlation: stats.PearsonCorrelation(xs, ys),
	}, nil
}

// Remove deletes one point by ID. Other points and the judgement cache are
// untouched.
func (s *PointService) Remove(id string) error {
	ok, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPointNotFound
	}
	return nil
}

// Clear removes every point and returns how many were removed
func (s *PointService) Clear() (int64, error) {
	return s.repo.DeleteAll()
}

// ToggleUncertainty flips one point's uncertainty-display flag and returns the
// updated point. Coordinates and bounds are never altered.
func (s *PointService) ToggleUncertainty(id string) (*models.Point, error) {
	ok, err := s.repo.ToggleUncertainty(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPointNotFound
	}
	return s.repo.GetByID(id)
}
