package emergency

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("emergency: event not found")
	ErrDuplicate = errors.New("emergency: duplicate emergency id")
)

// Store persists emergency events. Events are never deleted; cancellation is
// a status write.
type Store interface {
	Create(ctx context.Context, e Event) error
	Get(ctx context.Context, emergencyID string) (Event, error)
	Cancel(ctx context.Context, emergencyID string, at time.Time) error
}
