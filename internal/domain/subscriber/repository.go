package subscriber

import (
	"context"
)

// Repository defines the operations for persisting and retrieving subscribers.
// Add and Remove are idempotent.
type Repository interface {
	AddSubscriber(ctx context.Context, s *Subscriber) error
	RemoveSubscriber(ctx context.Context, userID int64) error
	IsSubscribed(ctx context.Context, userID int64) (bool, error)
	ListSubscribers(ctx context.Context) ([]*Subscriber, error)
}
