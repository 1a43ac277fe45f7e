package watcher

import (
	"context"
	"time"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
)

// Reporter turns samples into heartbeat events. It keeps no merge state:
// coalescing consecutive equal samples is left to the event-store.
type Reporter struct {
	store    EventStore
	bucketID string
	now      func() time.Time
}

// NewReporter creates a Reporter writing to bucketID.
func NewReporter(store EventStore, bucketID string) *Reporter {
	return &Reporter{
		store:    store,
		bucketID: bucketID,
		now:      time.Now,
	}
}

// Report submits the sample as an event lasting duration, using the same
// duration as the heartbeat merge window.
func (r *Reporter) Report(ctx context.Context, s Sample, duration time.Duration) error {
	ev := activity.NewEvent(r.now(), duration, s.Data())
	return r.store.Heartbeat(ctx, r.bucketID, ev, duration)
}
