package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
	"github.com/moralgraph/moralgraph-backend-go/internal/repository"
)

// ErrAnalysisInFlight is returned when a submission arrives while a prior
// analysis has not settled. The client disables its trigger, so hitting this
// means two clients or a misbehaving one.
var ErrAnalysisInFlight = errors.New("an analysis is already in progress")

const labelMaxRunes = 60

// Judge abstracts the model client so tests can substitute a fake.
type Judge interface {
	Judge(ctx context.Context, action, intent, mode string) (*models.Judgement, error)
}

// AnalysisService runs one scenario through the model, applies the judgement
// cache policy and appends the resulting point to the store.
type AnalysisService struct {
	judge  Judge
	points *repository.PointRepository
	cache  *repository.CacheRepository

	mu   sync.Mutex
	busy bool
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(judge Judge, points *repository.PointRepository, cache *repository.CacheRepository) *AnalysisService {
	return &AnalysisService{
		judge:  judge,
		points: points,
		cache:  cache,
	}
}

// CacheKey builds the lookup key for an action under a mode: the mode tag plus
// the trimmed, lower-cased action text.
func CacheKey(mode, action string) string {
	return mode + "|" + strings.ToLower(strings.TrimSpace(action))
}

// Analyze judges one scenario and stores the plotted point.
//
// The y-axis verdict is sticky per action: on a cache hit the freshly returned
// y and its bounds are discarded in favor of the cached ones, so a repeated
// action always plots at the same height no matter what the model says the
// second time. The x-axis verdict is always taken fresh. On a miss the fresh
// y verdict is cached for future submissions of the same action.
func (s *AnalysisService) Analyze(ctx context.Context, action, intent, mode string) (*models.Point, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	judgement, err := s.judge.Judge(ctx, action, intent, mode)
	if err != nil {
		return nil, err
	}

	key := CacheKey(mode, action)
	cached, err := s.cache.Get(key)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		judgement.Y = cached.Y
		judgement.YMin = cached.YMin
		judgement.YMax = cached.YMax
	} else {
		if err := s.cache.Put(key, judgement.Y, judgement.YMin, judgement.YMax); err != nil {
			return nil, err
		}
	}

	point := &models.Point{
		ID:              uuid.NewString(),
		Action:          action,
		Intent:          intent,
		X:               judgement.X,
		Y:               judgement.Y,
		XMin:            judgement.XMin,
		XMax:            judgement.XMax,
		YMin:            judgement.YMin,
		YMax:            judgement.YMax,
		Label:           makeLabel(action),
		Mode:            mode,
		ShowUncertainty: true,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.points.Create(point); err != nil {
		return nil, err
	}

	log.Printf("Plotted point %s (mode=%s, x=%.3f, y=%.3f, cache_hit=%t)",
		point.ID, mode, point.X, point.Y, cached != nil)
	return point, nil
}

// CacheStats returns the entry count and keys of the judgement cache
func (s *AnalysisService) CacheStats() (int, []string, error) {
	count, err := s.cache.Count()
	if err != nil {
		return 0, nil, err
	}
	keys, err := s.cache.Keys()
	if err != nil {
		return 0, nil, err
	}
	return count, keys, nil
}

// ClearCache empties the judgement cache. Plotted points are unaffected; the
// next submission of a previously cached action re-seeds the cache from the
// model's fresh verdict.
func (s *AnalysisService) ClearCache() (int64, error) {
	return s.cache.Clear()
}

// acquire takes the single in-flight slot
func (s *AnalysisService) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrAnalysisInFlight
	}
	s.busy = true
	return nil
}

func (s *AnalysisService) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// makeLabel derives the display label from the action text
func makeLabel(action string) string {
	label := strings.TrimSpace(action)
	runes := []rune(label)
	if len(runes) > labelMaxRunes {
		return string(runes[:labelMaxRunes-1]) + "…"
	}
	return label
}
