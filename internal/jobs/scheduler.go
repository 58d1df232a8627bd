// Package jobs runs periodic housekeeping on a gocron scheduler.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job names
const (
	JobSessionCleanup     = "session-cleanup"
	JobBattleEviction     = "battle-eviction"
	JobStreamCleanup      = "stream-cleanup"
	JobLeaderboardRebuild = "leaderboard-rebuild"
)

// SessionCleaner drops expired auth sessions
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int, error)
}

// BattleEvictor drops idle battle sessions
type BattleEvictor interface {
	EvictIdle() int
}

// HubCleaner drops event hubs with no listeners
type HubCleaner interface {
	CleanupEmptyHubs() int
}

// LeaderboardRebuilder re-projects profiles onto the leaderboard
type LeaderboardRebuilder interface {
	RebuildLeaderboard(ctx context.Context) (int, error)
}

// Config holds job intervals
type Config struct {
	SessionCleanupInterval     time.Duration
	BattleEvictionInterval     time.Duration
	StreamCleanupInterval      time.Duration
	LeaderboardRebuildInterval time.Duration
}

// DefaultConfig returns default job intervals
func DefaultConfig() Config {
	return Config{
		SessionCleanupInterval:     10 * time.Minute,
		BattleEvictionInterval:     time.Minute,
		StreamCleanupInterval:      5 * time.Minute,
		LeaderboardRebuildInterval: time.Hour,
	}
}

// Dependencies are the components jobs act on. Nil entries get no job.
type Dependencies struct {
	Sessions    SessionCleaner
	Battles     BattleEvictor
	Streams     HubCleaner
	Leaderboard LeaderboardRebuilder
}

type task struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
}

// Scheduler owns the gocron scheduler and its registered tasks
type Scheduler struct {
	scheduler gocron.Scheduler
	tasks     map[string]task
	names     []string
	logger    *slog.Logger
}

// New creates a Scheduler with one job per non-nil dependency. Call Start to begin.
func New(cfg Config, deps Dependencies, logger *slog.Logger) (*Scheduler, error) {
	defaults := DefaultConfig()
	if cfg.SessionCleanupInterval <= 0 {
		cfg.SessionCleanupInterval = defaults.SessionCleanupInterval
	}
	if cfg.BattleEvictionInterval <= 0 {
		cfg.BattleEvictionInterval = defaults.BattleEvictionInterval
	}
	if cfg.StreamCleanupInterval <= 0 {
		cfg.StreamCleanupInterval = defaults.StreamCleanupInterval
	}
	if cfg.LeaderboardRebuildInterval <= 0 {
		cfg.LeaderboardRebuildInterval = defaults.LeaderboardRebuildInterval
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler: sched,
		tasks:     make(map[string]task),
		logger:    logger.With(slog.String("component", "jobs")),
	}

	var tasks []task
	if deps.Sessions != nil {
		tasks = append(tasks, task{JobSessionCleanup, cfg.SessionCleanupInterval, func(ctx context.Context) {
			n, err := deps.Sessions.CleanExpiredSessions(ctx)
			if err != nil {
				s.logger.Error("session cleanup failed", slog.String("error", err.Error()))
				return
			}
			if n > 0 {
				s.logger.Info("expired sessions removed", slog.Int("count", n))
			}
		}})
	}
	if deps.Battles != nil {
		tasks = append(tasks, task{JobBattleEviction, cfg.BattleEvictionInterval, func(context.Context) {
			deps.Battles.EvictIdle()
		}})
	}
	if deps.Streams != nil {
		tasks = append(tasks, task{JobStreamCleanup, cfg.StreamCleanupInterval, func(context.Context) {
			deps.Streams.CleanupEmptyHubs()
		}})
	}
	if deps.Leaderboard != nil {
		tasks = append(tasks, task{JobLeaderboardRebuild, cfg.LeaderboardRebuildInterval, func(ctx context.Context) {
			n, err := deps.Leaderboard.RebuildLeaderboard(ctx)
			if err != nil {
				s.logger.Error("leaderboard rebuild failed", slog.String("error", err.Error()))
				return
			}
			if n > 0 {
				s.logger.Info("leaderboard entries repaired", slog.Int("count", n))
			}
		}})
	}

	for _, t := range tasks {
		run := t.run
		_, err := sched.NewJob(
			gocron.DurationJob(t.interval),
			gocron.NewTask(func() { run(context.Background()) }),
			gocron.WithName(t.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", t.name, err)
		}
		s.tasks[t.name] = t
		s.names = append(s.names, t.name)
	}

	return s, nil
}

// Start begins running jobs on their intervals
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("job scheduler started", slog.Any("jobs", s.names))
}

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info("job scheduler stopped")
	return nil
}

// JobNames returns the registered job names in registration order
func (s *Scheduler) JobNames() []string {
	result := make([]string, len(s.names))
	copy(result, s.names)
	return result
}

// RunNow runs a job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	t, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	t.run(ctx)
	return nil
}
