package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/store"
)

// allocateMaxAttempts bounds the optimistic-concurrency retry loop. Hitting
// the bound means contention far beyond expected registration load and is
// surfaced as a transient server error, not a client error.
const allocateMaxAttempts = 10

// SequenceAllocator hands out globally unique, strictly increasing hacker
// numbers backed by the singleton counter document.
type SequenceAllocator interface {
	Allocate(ctx context.Context) (int, error)
}

type sequenceAllocator struct {
	counters repositories.CounterRepository
}

func NewSequenceAllocator(counters repositories.CounterRepository) SequenceAllocator {
	return &sequenceAllocator{counters: counters}
}

// Allocate reads the counter with its version token and attempts a
// conditional increment. The counter is created lazily on first use. A lost
// race (creation or replace) restarts the loop from the read.
func (s *sequenceAllocator) Allocate(ctx context.Context) (int, error) {
	for attempt := 1; attempt <= allocateMaxAttempts; attempt++ {
		counter, err := s.counters.Get(ctx)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				created, createErr := s.counters.Create(ctx, 1)
				if createErr == nil {
					return created.Value, nil
				}
				if errors.Is(createErr, store.ErrAlreadyExists) {
					continue // someone else created it first, re-read
				}
				return 0, fmt.Errorf("%w: create counter: %v", ErrStoreUnavailable, createErr)
			}
			return 0, fmt.Errorf("%w: read counter: %v", ErrStoreUnavailable, err)
		}

		counter.Value++
		if _, err := s.counters.Replace(ctx, counter); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue // another writer got there first, re-read
			}
			return 0, fmt.Errorf("%w: increment counter: %v", ErrStoreUnavailable, err)
		}
		return counter.Value, nil
	}
	return 0, ErrAllocationExhausted
}
