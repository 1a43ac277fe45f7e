package eventstore

import (
	"sync"
	"time"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
)

// bucketHistory holds a bucket and its time-ordered events (oldest first).
type bucketHistory struct {
	bucket activity.Bucket
	events []activity.Event
}

// MemoryStore is a concurrency-safe in-memory event-store implementing
// bucket registration and heartbeat merging.
type MemoryStore struct {
	mu sync.RWMutex

	// key: bucket id
	data   map[string]*bucketHistory
	nextID int64

	// max number of events kept per bucket (0 = unlimited)
	maxEvents int

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxEvents is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEvents int) *MemoryStore {
	return &MemoryStore{
		data:      make(map[string]*bucketHistory),
		maxEvents: maxEvents,
		now:       time.Now,
	}
}

// CreateBucket registers a bucket. It returns activity.ErrBucketExists when
// the id is already taken; the stored bucket is left untouched.
func (s *MemoryStore) CreateBucket(b activity.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[b.ID]; ok {
		return activity.ErrBucketExists
	}

	created := s.now().UTC()
	b.Created = &created
	if b.Data == nil {
		b.Data = map[string]any{}
	}
	s.data[b.ID] = &bucketHistory{bucket: b}
	return nil
}

// GetBucket returns bucket metadata by id.
func (s *MemoryStore) GetBucket(id string) (activity.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[id]
	if !ok {
		return activity.Bucket{}, activity.ErrBucketNotFound
	}
	return h.bucket, nil
}

// Buckets returns all registered buckets keyed by id.
func (s *MemoryStore) Buckets() map[string]activity.Bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]activity.Bucket, len(s.data))
	for id, h := range s.data {
		out[id] = h.bucket
	}
	return out
}

// Heartbeat merges hb into the most recent event of the bucket when the
// heartbeat rule allows it, otherwise appends it as a new event. The stored
// (possibly merged) event is returned.
func (s *MemoryStore) Heartbeat(id string, hb activity.Event, pulsetime time.Duration) (activity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[id]
	if !ok {
		return activity.Event{}, activity.ErrBucketNotFound
	}

	hb.Timestamp = hb.Timestamp.UTC()

	if n := len(h.events); n > 0 {
		if merged, ok := activity.MergeHeartbeat(h.events[n-1], hb, pulsetime); ok {
			h.events[n-1] = merged
			return merged, nil
		}
	}

	s.nextID++
	eventID := s.nextID
	hb.ID = &eventID
	h.events = append(h.events, hb)

	// Enforce retention by count.
	if s.maxEvents > 0 && len(h.events) > s.maxEvents {
		over := len(h.events) - s.maxEvents
		h.events = h.events[over:]
	}
	return hb, nil
}

// Events returns up to limit events of a bucket, newest first.
// A limit <= 0 returns every event.
func (s *MemoryStore) Events(id string, limit int) ([]activity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[id]
	if !ok {
		return nil, activity.ErrBucketNotFound
	}

	n := len(h.events)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]activity.Event, 0, n)
	for i := len(h.events) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, h.events[i])
	}
	return result, nil
}
