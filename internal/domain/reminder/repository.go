package reminder

import (
	"context"
	"errors"

	"sunset_reminder_bot/internal/domain/subscriber"
)

// ErrPersistence wraps every failure of the backing store.
var ErrPersistence = errors.New("persistence store unavailable")

// Store is everything the reminder core persists. Each call is atomic on
// its own; callers must not assume transactions across calls.
type Store interface {
	subscriber.Repository

	// GetRentPaid returns found=false when no record exists for the month.
	GetRentPaid(ctx context.Context, key MonthKey) (paid bool, found bool, err error)
	SetRentPaid(ctx context.Context, key MonthKey, paid bool) error

	// GetLastDispatchDate returns found=false when kind was never dispatched.
	GetLastDispatchDate(ctx context.Context, kind DispatchKind) (d Date, found bool, err error)
	SetLastDispatchDate(ctx context.Context, kind DispatchKind, d Date) error

	Close() error
}
