package watcher

import (
	"context"
	"time"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
)

// LocationProvider resolves the host's position from visible access points.
// Candidates are ordered best first; an empty slice means nothing was found.
type LocationProvider interface {
	Name() string
	Candidates(ctx context.Context) ([]Candidate, error)
}

// EventStore is the subset of the event-store API the watcher depends on.
type EventStore interface {
	CreateBucket(ctx context.Context, b activity.Bucket) error
	Heartbeat(ctx context.Context, bucketID string, ev activity.Event, pulsetime time.Duration) error
}
