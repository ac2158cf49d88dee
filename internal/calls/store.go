package calls

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a call id has no record.
	ErrNotFound = errors.New("calls: record not found")

	// ErrDuplicate is returned when creating a record whose call id exists.
	ErrDuplicate = errors.New("calls: duplicate call id")
)

// CallUpdate is a partial merge: nil fields are left untouched.
type CallUpdate struct {
	Status          *CallStatus
	Result          *CallResult
	ProviderCallID  *string
	ProviderStatus  *string
	DurationSeconds *int
}

// Store is the single source of truth for call state. All writes are durable
// before the call returns; callers do not retry on the assumption of eventual
// durability. No transactional multi-key operations are required.
type Store interface {
	Create(ctx context.Context, rec CallRecord) error
	Get(ctx context.Context, callID string) (CallRecord, error)
	Update(ctx context.Context, callID string, u CallUpdate) error
}

func statusPtr(s CallStatus) *CallStatus { return &s }
func resultPtr(r CallResult) *CallResult { return &r }
func strPtr(s string) *string            { return &s }
func intPtr(n int) *int                  { return &n }
