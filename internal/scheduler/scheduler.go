package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
)

const defaultTickTimeout = 30 * time.Second

// Ticker performs one unit of periodic work.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Scheduler drives the polling loop and any background jobs.
type Scheduler struct {
	cron        *gocron.Scheduler
	ticker      Ticker
	interval    time.Duration
	tickTimeout time.Duration
	logger      *slog.Logger
}

// New creates a new Scheduler that calls ticker every interval.
func New(ticker Ticker, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        gocron.NewScheduler(time.UTC),
		ticker:      ticker,
		interval:    interval,
		tickTimeout: defaultTickTimeout,
		logger:      logger.With("component", "scheduler"),
	}
}

// Run ticks immediately and then once per interval until ctx is cancelled.
// The next wait is armed only after the previous tick has returned, so ticks
// never overlap and none are skipped. A tick already in flight when ctx is
// cancelled runs to completion.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("polling started", "interval", s.interval)

	for {
		s.runTick(ctx)

		if ctx.Err() != nil {
			s.logger.Info("polling stopped")
			return nil
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("polling stopped")
			return nil
		case <-timer.C:
		}
	}
}

// runTick isolates a single tick: errors and panics are logged, never propagated.
func (s *Scheduler) runTick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.tickTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tick panicked", "panic", r)
		}
	}()

	if err := s.ticker.Tick(tickCtx); err != nil {
		s.logger.Warn("tick failed", "error", err)
	}
}

// RetryUntil runs fn in the background every interval, starting one interval
// from now, until it succeeds once. Each failure logs a single warning. The
// job is removed from the scheduler after the first success.
func (s *Scheduler) RetryUntil(name string, every time.Duration, fn func(ctx context.Context) error) error {
	var done atomic.Bool

	_, err := s.cron.Every(every).Tag(name).WaitForSchedule().SingletonMode().Do(func() {
		if done.Load() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), every)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Warn("background job failed", "job", name, "error", err)
			return
		}
		done.Store(true)
		s.logger.Info("background job succeeded", "job", name)
		if err := s.cron.RemoveByTag(name); err != nil {
			s.logger.Warn("remove background job", "job", name, "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.StartAsync()
	return nil
}

// Stop stops the background scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
