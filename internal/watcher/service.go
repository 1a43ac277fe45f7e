package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brayo-pip/aw-watcher-network/internal/metrics"
)

// Watcher runs one sample-and-report cycle per tick.
type Watcher struct {
	sampler  *Sampler
	reporter *Reporter
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Watcher whose events last interval and merge within interval.
func New(sampler *Sampler, reporter *Reporter, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Watcher {
	return &Watcher{
		sampler:  sampler,
		reporter: reporter,
		interval: interval,
		logger:   logger.With("component", "watcher"),
		metrics:  m,
	}
}

// Tick samples the location once and reports it. An empty sample is not an
// error; provider and report failures are returned for the caller to log.
func (w *Watcher) Tick(ctx context.Context) error {
	start := time.Now()
	outcome := w.sampler.Sample(ctx)

	switch outcome.Kind {
	case OutcomeEmpty:
		w.metrics.Tick(metrics.OutcomeEmpty, time.Since(start))
		w.logger.Warn("no locations found for visible access points")
		return nil
	case OutcomeError:
		w.metrics.Tick(metrics.OutcomeError, time.Since(start))
		return fmt.Errorf("get locations: %w", outcome.Err)
	}

	err := w.reporter.Report(ctx, outcome.Sample, w.interval)
	w.metrics.Heartbeat(err)
	w.metrics.Tick(metrics.OutcomeFound, time.Since(start))
	if err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}

	w.logger.Debug("location reported", "location", outcome.Sample.Location(), "address", outcome.Sample.Address)
	return nil
}

// Locate returns the sampler's first candidate, or ErrNoCandidates.
func Locate(ctx context.Context, s *Sampler) (Sample, error) {
	outcome := s.Sample(ctx)
	switch outcome.Kind {
	case OutcomeFound:
		return outcome.Sample, nil
	case OutcomeEmpty:
		return Sample{}, ErrNoCandidates
	default:
		return Sample{}, outcome.Err
	}
}
