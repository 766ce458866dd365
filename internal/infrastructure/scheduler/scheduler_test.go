package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cache"
	"github.com/doeshing/promptsmith/internal/infrastructure/history"
	"github.com/doeshing/promptsmith/internal/ports"
)

type stubSweeper struct {
	evicted int
	err     error
	calls   int
}

func (s *stubSweeper) Sweep() (int, error) {
	s.calls++
	return s.evicted, s.err
}

func TestRunOnceSweepsAndPrunes(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := ports.ClockFunc(func() time.Time { return now })
	ctx := context.Background()

	store, err := cache.NewMemoryStore(10)
	require.NoError(t, err)
	past := now.Add(-48 * time.Hour)
	genCache := cache.NewGenerationCache(store, cache.WithClock(ports.ClockFunc(func() time.Time { return past })))
	_, err = genCache.Put("stale", "gpt", 1, "", []domain.GeneratedItem{{Content: "old"}})
	require.NoError(t, err)
	genCache = cache.NewGenerationCache(store, cache.WithClock(clock))

	hist := history.NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"), clock)
	require.NoError(t, hist.Append(ctx, domain.HistoryRecord{ID: "old", Kind: domain.HistoryKindAnalysis, Timestamp: now.AddDate(0, 0, -40)}))
	require.NoError(t, hist.Append(ctx, domain.HistoryRecord{ID: "new", Kind: domain.HistoryKindAnalysis, Timestamp: now.Add(-time.Hour)}))

	m := &Maintenance{Cache: genCache, History: hist, RetentionDays: 30}
	result, err := m.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CacheEvicted)
	assert.Equal(t, 1, result.HistoryPruned)

	records, err := hist.List(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)
}

func TestRunOnceSkipsPruneWithoutRetention(t *testing.T) {
	sweeper := &stubSweeper{evicted: 2}
	m := &Maintenance{Cache: sweeper, RetentionDays: 0}
	result, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{CacheEvicted: 2}, result)
	assert.Equal(t, 1, sweeper.calls)
}

func TestRunOnceReportsErrors(t *testing.T) {
	m := &Maintenance{Cache: &stubSweeper{err: errors.New("disk full")}}
	_, err := m.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache sweep: disk full")
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("every minute", &Maintenance{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid maintenance schedule")
}

func TestStartStopIsIdempotent(t *testing.T) {
	s, err := New("@hourly", &Maintenance{Cache: &stubSweeper{}})
	require.NoError(t, err)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
