package calls

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory call store for tests and early
// development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]CallRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]CallRecord{}}
}

func (s *MemoryStore) Create(ctx context.Context, rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.CallID]; ok {
		return ErrDuplicate
	}
	s.records[rec.CallID] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[callID]
	if !ok {
		return CallRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Update(ctx context.Context, callID string, u CallUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[callID]
	if !ok {
		return ErrNotFound
	}
	if u.Status != nil {
		rec.Status = *u.Status
	}
	if u.Result != nil {
		rec.Result = *u.Result
	}
	if u.ProviderCallID != nil {
		rec.ProviderCallID = *u.ProviderCallID
	}
	if u.ProviderStatus != nil {
		rec.ProviderStatus = *u.ProviderStatus
	}
	if u.DurationSeconds != nil {
		rec.DurationSeconds = *u.DurationSeconds
	}
	s.records[callID] = rec
	return nil
}
