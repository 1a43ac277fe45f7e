package watcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCandidates is returned by Locate when the provider found nothing.
var ErrNoCandidates = errors.New("no location candidates")

// Sampler asks the location provider for a position once per call.
type Sampler struct {
	provider LocationProvider
}

// NewSampler creates a new Sampler.
func NewSampler(provider LocationProvider) *Sampler {
	return &Sampler{provider: provider}
}

// Sample calls the provider once and keeps its first candidate.
func (s *Sampler) Sample(ctx context.Context) Outcome {
	candidates, err := s.provider.Candidates(ctx)
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: fmt.Errorf("%s: %w", s.provider.Name(), err)}
	}
	if len(candidates) == 0 {
		return Outcome{Kind: OutcomeEmpty}
	}

	first := candidates[0]
	return Outcome{
		Kind: OutcomeFound,
		Sample: Sample{
			Longitude: first.Longitude,
			Latitude:  first.Latitude,
			Address:   first.Address,
		},
	}
}
