package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/moralgraph/moralgraph-backend-go/internal/database"
	"github.com/moralgraph/moralgraph-backend-go/internal/llm"
	"github.com/moralgraph/moralgraph-backend-go/internal/models"
	"github.com/moralgraph/moralgraph-backend-go/internal/repository"
)

// scriptedJudge returns queued judgements in order, or a fixed error.
type scriptedJudge struct {
	queue   []*models.Judgement
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (j *scriptedJudge) Judge(ctx context.Context, action, intent, mode string) (*models.Judgement, error) {
	j.calls++
	if j.started != nil {
		j.started <- struct{}{}
		<-j.release
	}
	if j.err != nil {
		return nil, j.err
	}
	next := j.queue[0]
	if len(j.queue) > 1 {
		j.queue = j.queue[1:]
	}
	return next, nil
}

func ptr(v float64) *float64 { return &v }

func judgement(x, y float64) *models.Judgement {
	return &models.Judgement{X: x, Y: y}
}

func newTestService(t *testing.T, judge Judge) (*AnalysisService, *repository.PointRepository, *repository.CacheRepository) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	points := repository.NewPointRepository(db)
	cache := repository.NewCacheRepository(db)
	return NewAnalysisService(judge, points, cache), points, cache
}

func TestAnalyze_RepeatedActionKeepsCachedY(t *testing.T) {
	first := judgement(0.5, -0.3)
	first.YMin, first.YMax = ptr(-0.5), ptr(-0.1)
	second := judgement(-0.2, 0.9)
	second.YMin, second.YMax = ptr(0.7), ptr(1.0)

	judge := &scriptedJudge{queue: []*models.Judgement{first, second}}
	svc, _, _ := newTestService(t, judge)

	p1, err := svc.Analyze(context.Background(), "Stole bread", "to feed a child", models.ModeDeontic)
	require.NoError(t, err)

	// Different intent, different model output, same action
	p2, err := svc.Analyze(context.Background(), "  stole BREAD ", "for the thrill", models.ModeDeontic)
	require.NoError(t, err)

	// y and its bounds come from the cache both times
	require.Equal(t, p1.Y, p2.Y)
	require.Equal(t, *p1.YMin, *p2.YMin)
	require.Equal(t, *p1.YMax, *p2.YMax)

	// x always reflects the latest model output
	require.Equal(t, 0.5, p1.X)
	require.Equal(t, -0.2, p2.X)
}

func TestAnalyze_SameActionDifferentModeIsNotCached(t *testing.T) {
	judge := &scriptedJudge{queue: []*models.Judgement{
		judgement(0.1, -0.8),
		judgement(0.1, 0.6),
	}}
	svc, _, _ := newTestService(t, judge)

	p1, err := svc.Analyze(context.Background(), "stole bread", "hunger", models.ModeDeontic)
	require.NoError(t, err)
	p2, err := svc.Analyze(context.Background(), "stole bread", "hunger", models.ModeUtilitarian)
	require.NoError(t, err)

	require.Equal(t, -0.8, p1.Y)
	require.Equal(t, 0.6, p2.Y)
}

func TestAnalyze_ClearCacheAcceptsFreshVerdict(t *testing.T) {
	judge := &scriptedJudge{queue: []*models.Judgement{
		judgement(0.0, -0.5),
		judgement(0.0, 0.4),
		judgement(0.0, 0.9),
	}}
	svc, _, cache := newTestService(t, judge)

	_, err := svc.Analyze(context.Background(), "lied", "kindness", models.ModeDeontic)
	require.NoError(t, err)

	removed, err := svc.ClearCache()
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	// The fresh verdict after a clear becomes the new cached value
	p2, err := svc.Analyze(context.Background(), "lied", "kindness", models.ModeDeontic)
	require.NoError(t, err)
	require.Equal(t, 0.4, p2.Y)

	p3, err := svc.Analyze(context.Background(), "lied", "spite", models.ModeDeontic)
	require.NoError(t, err)
	require.Equal(t, 0.4, p3.Y)

	e, err := cache.Get(CacheKey(models.ModeDeontic, "lied"))
	require.NoError(t, err)
	require.Equal(t, 0.4, e.Y)
}

func TestAnalyze_FailureAppendsNothing(t *testing.T) {
	judge := &scriptedJudge{err: llm.ErrAnalysisFailed}
	svc, points, cache := newTestService(t, judge)

	_, err := svc.Analyze(context.Background(), "stole bread", "hunger", models.ModeDeontic)
	require.ErrorIs(t, err, llm.ErrAnalysisFailed)
	require.Equal(t, 1, judge.calls)

	n, err := points.Count()
	require.NoError(t, err)
	require.Zero(t, n)

	c, err := cache.Count()
	require.NoError(t, err)
	require.Zero(t, c)
}

func TestAnalyze_RemovePointLeavesCache(t *testing.T) {
	judge := &scriptedJudge{queue: []*models.Judgement{judgement(0.2, 0.3)}}
	svc, points, cache := newTestService(t, judge)

	p, err := svc.Analyze(context.Background(), "helped", "pity", models.ModeDeontic)
	require.NoError(t, err)

	ok, err := points.Delete(p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	c, err := cache.Count()
	require.NoError(t, err)
	require.Equal(t, 1, c)
}

func TestAnalyze_SecondSubmissionWhileInFlight(t *testing.T) {
	judge := &scriptedJudge{
		queue:   []*models.Judgement{judgement(0.1, 0.1)},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _, _ := newTestService(t, judge)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(context.Background(), "slow one", "why", models.ModeDeontic)
		done <- err
	}()

	// Wait until the first submission is inside the model call
	<-judge.started

	_, err := svc.Analyze(context.Background(), "eager one", "why", models.ModeDeontic)
	require.ErrorIs(t, err, ErrAnalysisInFlight)

	close(judge.release)
	require.NoError(t, <-done)

	// The slot frees up once the first submission settles
	judge.started = nil
	_, err = svc.Analyze(context.Background(), "eager one", "why", models.ModeDeontic)
	require.NoError(t, err)
}

func TestMakeLabel_TruncatesLongActions(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "ab"
	}

	label := makeLabel(long)
	require.Equal(t, labelMaxRunes, len([]rune(label)))
	require.Equal(t, "…", string([]rune(label)[labelMaxRunes-1]))

	require.Equal(t, "short", makeLabel("  short  "))
}
