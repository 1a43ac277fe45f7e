package watcher

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/brayo-pip/aw-watcher-network/internal/activity"
	"github.com/brayo-pip/aw-watcher-network/internal/eventstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedProvider replays one response per call, repeating the last.
type scriptedProvider struct {
	mu    sync.Mutex
	calls int
	steps []providerStep
}

type providerStep struct {
	candidates []Candidate
	err        error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Candidates(ctx context.Context) ([]Candidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	p.calls++
	return p.steps[i].candidates, p.steps[i].err
}

// stubStore adapts the in-memory event-store to the EventStore interface.
type stubStore struct {
	*eventstore.MemoryStore

	mu        sync.Mutex
	failNext  int
	failWith  error
	pulsetime time.Duration
	creates   int
}

func newStubStore() *stubStore {
	return &stubStore{MemoryStore: eventstore.NewMemoryStore(0)}
}

func (s *stubStore) failing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return s.failWith
	}
	return nil
}

func (s *stubStore) CreateBucket(ctx context.Context, b activity.Bucket) error {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	if err := s.failing(); err != nil {
		return err
	}
	return s.MemoryStore.CreateBucket(b)
}

func (s *stubStore) Heartbeat(ctx context.Context, bucketID string, ev activity.Event, pulsetime time.Duration) error {
	if err := s.failing(); err != nil {
		return err
	}
	s.mu.Lock()
	s.pulsetime = pulsetime
	s.mu.Unlock()
	_, err := s.MemoryStore.Heartbeat(bucketID, ev, pulsetime)
	return err
}

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
