package app

import (
	"context"
	"fmt"

	"sunset_reminder_bot/internal/domain/subscriber"
)

// Custom application-level errors for the subscription service
var ErrAlreadySubscribed = fmt.Errorf("user has already opted in to sunset reminders")

type SubscriptionService struct {
	repo subscriber.Repository
}

func NewSubscriptionService(repo subscriber.Repository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

// OptIn subscribes a user to sunset warnings.
func (s *SubscriptionService) OptIn(ctx context.Context, userID int64, displayName string) (*subscriber.Subscriber, error) {
	subscribed, err := s.repo.IsSubscribed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if subscribed {
		return nil, ErrAlreadySubscribed
	}

	sub := &subscriber.Subscriber{
		UserID:      userID,
		DisplayName: displayName,
	}
	if err := s.repo.AddSubscriber(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to add subscriber: %w", err)
	}
	return sub, nil
}

// OptOut is idempotent; opting out twice is not an error.
func (s *SubscriptionService) OptOut(ctx context.Context, userID int64) error {
	if err := s.repo.RemoveSubscriber(ctx, userID); err != nil {
		return fmt.Errorf("failed to remove subscriber: %w", err)
	}
	return nil
}

func (s *SubscriptionService) List(ctx context.Context) ([]*subscriber.Subscriber, error) {
	subs, err := s.repo.ListSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subs, nil
}
