package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
	"github.com/brayo-pip/aw-watcher-network/internal/metrics"
)

// Registrar makes sure the watcher's bucket exists before heartbeats flow.
type Registrar struct {
	store    EventStore
	hostname string
	logger   *slog.Logger
	metrics  *metrics.Metrics

	newBackOff func() backoff.BackOff
}

// NewRegistrar creates a Registrar. Transient failures are retried with
// exponential backoff for up to maxElapsed.
func NewRegistrar(store EventStore, hostname string, maxElapsed time.Duration, logger *slog.Logger, m *metrics.Metrics) *Registrar {
	return &Registrar{
		store:    store,
		hostname: hostname,
		logger:   logger.With("component", "registrar"),
		metrics:  m,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 500 * time.Millisecond
			bo.MaxInterval = 5 * time.Second
			bo.MaxElapsedTime = maxElapsed
			return bo
		},
	}
}

// WithBackOff overrides the retry policy.
func (r *Registrar) WithBackOff(newBackOff func() backoff.BackOff) *Registrar {
	r.newBackOff = newBackOff
	return r
}

// EnsureBucket creates the bucket id for client. A bucket that already
// exists counts as success, so repeated calls are harmless.
func (r *Registrar) EnsureBucket(ctx context.Context, client, id string) error {
	bucket := activity.Bucket{
		ID:       id,
		Type:     BucketType,
		Client:   client,
		Hostname: r.hostname,
		Data:     map[string]any{},
	}

	op := func() error {
		err := r.store.CreateBucket(ctx, bucket)
		if errors.Is(err, activity.ErrBucketExists) {
			err = nil
		}
		r.metrics.Registration(err)
		return err
	}
	notify := func(err error, next time.Duration) {
		r.logger.Warn("bucket registration failed, retrying", "bucket", id, "retry_in", next, "error", err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(r.newBackOff(), ctx), notify); err != nil {
		return fmt.Errorf("register bucket %s: %w", id, err)
	}
	r.logger.Debug("bucket registered", "bucket", id)
	return nil
}
