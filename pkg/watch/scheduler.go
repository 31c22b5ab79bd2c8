package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwojtas/cenowatch/pkg/store"
)

// Scheduler drives periodic cycles: one run every interval, plus at most one
// catch-up run at startup when the previous run is overdue but still within
// the misfire grace window. Missed ticks are never replayed one by one.
type Scheduler struct {
	checker  *Checker
	store    store.Store
	interval time.Duration
	grace    time.Duration
	logger   *slog.Logger

	// now is the clock seam for tests.
	now func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

func NewScheduler(c *Checker, s store.Store, interval, grace time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		checker:  c,
		store:    s,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in its own goroutine. It returns
// immediately; Stop (or cancelling ctx) ends the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run(ctx)
	})
}

// Stop ends the loop and waits for it to finish. A cycle already in progress
// runs to completion. Stopping a scheduler that was never started is a no-op.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	last, err := s.store.LastCycleAt(ctx)
	if err != nil {
		s.logger.Warn("reading last cycle time failed, skipping catch-up check", "error", err)
	} else if missedRunDue(s.now(), last, s.interval, s.grace) {
		s.logger.Info("previous run overdue, coalescing missed ticks into one catch-up cycle",
			"last_cycle", last, "interval", s.interval, "grace", s.grace)
		s.checker.RunCycle(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return
		case <-s.stop:
			s.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.checker.RunCycle(ctx)
		}
	}
}

// missedRunDue decides whether a catch-up cycle should run at startup. It is
// true when a run was missed (more than one interval since the last recorded
// cycle) and the overshoot is still within the grace window. A last-cycle
// time of zero means no cycle ever ran; there is nothing to catch up on
// because every item was checked synchronously at creation.
func missedRunDue(now, last time.Time, interval, grace time.Duration) bool {
	if last.IsZero() {
		return false
	}
	overdue := now.Sub(last) - interval
	return overdue > 0 && overdue <= grace
}
