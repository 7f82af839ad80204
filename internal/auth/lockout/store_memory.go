package lockout

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	failures    []time.Time
	lockedUntil time.Time
}

// InMemoryStore keeps a sliding window of failure timestamps per key.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*entry)}
}

func (s *InMemoryStore) LockedUntil(_ context.Context, key string, now time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.lockedUntil) {
		return time.Time{}, false, nil
	}
	return e.lockedUntil, true, nil
}

func (s *InMemoryStore) RecordFailure(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	cutoff := now.Add(-window)
	kept := e.failures[:0]
	for _, at := range e.failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	e.failures = append(kept, now)
	return len(e.failures), nil
}

// Lock also resets the window so the pair starts fresh once unlocked.
func (s *InMemoryStore) Lock(_ context.Context, key string, _, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.lockedUntil = until
	e.failures = nil
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
