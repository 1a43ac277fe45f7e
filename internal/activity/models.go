package activity

import (
	"errors"
	"math"
	"reflect"
	"time"
)

var (
	// ErrBucketExists is returned when creating a bucket that is already registered.
	ErrBucketExists = errors.New("bucket already exists")
	// ErrBucketNotFound is returned when a bucket id is unknown to the store.
	ErrBucketNotFound = errors.New("bucket not found")
)

// Bucket is a named, typed event stream owned by the event-store.
type Bucket struct {
	ID       string         `json:"id"`
	Type     string         `json:"type" validate:"required"`
	Client   string         `json:"client" validate:"required"`
	Hostname string         `json:"hostname"`
	Created  *time.Time     `json:"created,omitempty"`
	Data     map[string]any `json:"data"`
}

// Event is a single interval in a bucket. Duration is expressed in seconds
// on the wire, as the ActivityWatch REST API does.
type Event struct {
	ID        *int64         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp" validate:"required"`
	Duration  float64        `json:"duration" validate:"gte=0"`
	Data      map[string]any `json:"data"`
}

// NewEvent builds an event starting at ts (normalised to UTC).
func NewEvent(ts time.Time, d time.Duration, data map[string]any) Event {
	return Event{
		Timestamp: ts.UTC(),
		Duration:  d.Seconds(),
		Data:      data,
	}
}

// Length returns the event duration as a time.Duration.
func (e Event) Length() time.Duration {
	return time.Duration(math.Round(e.Duration * float64(time.Second)))
}

// End returns the instant the event's interval closes.
func (e Event) End() time.Time {
	return e.Timestamp.Add(e.Length())
}

// SameData reports whether two events carry equal payloads.
func (e Event) SameData(other Event) bool {
	if len(e.Data) == 0 && len(other.Data) == 0 {
		return true
	}
	return reflect.DeepEqual(e.Data, other.Data)
}

// MergeHeartbeat applies the heartbeat rule: hb is folded into last when
// both carry equal data and hb starts no earlier than last and no later than
// last's end plus pulsetime. The merged event keeps last's start and id and
// ends at the later of the two ends.
func MergeHeartbeat(last, hb Event, pulsetime time.Duration) (Event, bool) {
	if !last.SameData(hb) {
		return Event{}, false
	}
	if hb.Timestamp.Before(last.Timestamp) {
		return Event{}, false
	}
	if hb.Timestamp.After(last.End().Add(pulsetime)) {
		return Event{}, false
	}

	end := last.End()
	if hb.End().After(end) {
		end = hb.End()
	}

	merged := last
	merged.Duration = end.Sub(last.Timestamp).Seconds()
	return merged, true
}
