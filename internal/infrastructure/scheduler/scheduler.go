// Package scheduler runs periodic cache sweeps and history pruning.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	appconfig "github.com/doeshing/promptsmith/internal/application/config"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Sweeper drops expired cache entries.
type Sweeper interface {
	Sweep() (int, error)
}

// Maintenance holds the collaborators touched by one run.
// History may be nil; RetentionDays <= 0 disables pruning.
type Maintenance struct {
	Cache         Sweeper
	History       ports.HistoryStore
	RetentionDays int
	Logger        ports.Logger
}

// Result reports what one run removed.
type Result struct {
	CacheEvicted  int
	HistoryPruned int
}

// RunOnce performs a single maintenance pass. Errors from one step do not stop the other.
func (m *Maintenance) RunOnce(ctx context.Context) (Result, error) {
	var result Result
	var errs []string

	if m.Cache != nil {
		evicted, err := m.Cache.Sweep()
		if err != nil {
			errs = append(errs, fmt.Sprintf("cache sweep: %v", err))
		}
		result.CacheEvicted = evicted
	}
	if m.History != nil && m.RetentionDays > 0 {
		pruned, err := m.History.PruneOlderThan(ctx, m.RetentionDays)
		if err != nil {
			errs = append(errs, fmt.Sprintf("history prune: %v", err))
		}
		result.HistoryPruned = pruned
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("maintenance: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

// Scheduler triggers Maintenance on a cron schedule.
type Scheduler struct {
	cron        *cron.Cron
	maintenance *Maintenance
	schedule    string

	mu      sync.Mutex
	running bool
}

// New parses schedule and registers the maintenance job. Nothing runs until Start.
func New(schedule string, maintenance *Maintenance) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	sched, err := appconfig.ScheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	s := &Scheduler{
		cron:        cron.New(cron.WithParser(appconfig.ScheduleParser)),
		maintenance: maintenance,
		schedule:    schedule,
	}
	s.cron.Schedule(sched, cron.FuncJob(s.run))
	return s, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.log().Info("maintenance scheduled", map[string]interface{}{"schedule": s.schedule})
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	result, err := s.maintenance.RunOnce(context.Background())
	fields := map[string]interface{}{
		"cache_evicted":  result.CacheEvicted,
		"history_pruned": result.HistoryPruned,
	}
	if err != nil {
		s.log().Error("maintenance run failed", err, fields)
		return
	}
	s.log().Info("maintenance run complete", fields)
}

func (s *Scheduler) log() ports.Logger {
	if s.maintenance.Logger == nil {
		return nopLogger{}
	}
	return s.maintenance.Logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
