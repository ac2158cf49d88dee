package emergency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory event store for tests and early
// development.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: map[string]Event{}}
}

func (s *MemoryStore) Create(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.EmergencyID]; ok {
		return ErrDuplicate
	}
	s.events[e.EmergencyID] = e
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, emergencyID string) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[emergencyID]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) Cancel(ctx context.Context, emergencyID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[emergencyID]
	if !ok {
		return ErrNotFound
	}
	e.Status = StatusCancelled
	e.CancelledAt = &at
	s.events[emergencyID] = e
	return nil
}
