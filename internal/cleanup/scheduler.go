// Package cleanup runs the periodic purge of expired temporary projects.
package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule runs at the top of every hour (seconds field first).
const DefaultSchedule = "0 0 * * * *"

// runTimeout bounds a single purge run.
const runTimeout = 5 * time.Minute

// Purger deletes temporary projects last updated before cutoff.
type Purger interface {
	PurgeExpiredTemporary(ctx context.Context, cutoff time.Time) (int, error)
}

type Scheduler struct {
	purger   Purger
	ttl      time.Duration
	schedule string
	log      *zap.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	now     func() time.Time
}

func NewScheduler(purger Purger, schedule string, ttl time.Duration, log *zap.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		purger:   purger,
		ttl:      ttl,
		schedule: schedule,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the purge job and starts the cron runner.
func (s *Scheduler) Start() error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}
	s.cron = c
	c.Start()
	s.log.Info("cleanup scheduler started", zap.String("schedule", s.schedule), zap.Duration("ttl", s.ttl))
	return nil
}

// Stop halts the runner and waits for a running purge, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cleanup scheduler stop timed out")
	}
}

// RunOnce purges once. Overlapping runs are skipped and report -1.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Info("cleanup already running, skipping")
		return -1
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.ttl)
	start := time.Now()
	removed, err := s.purger.PurgeExpiredTemporary(ctx, cutoff)
	if err != nil {
		s.log.Error("cleanup failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0
	}
	s.log.Info("cleanup finished",
		zap.Int("removed", removed),
		zap.Time("cutoff", cutoff),
		zap.Duration("elapsed", time.Since(start)))
	return removed
}
