package app

import (
	"context"
	"errors"
	"testing"

	"sunset_reminder_bot/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_OptIn(t *testing.T) {
	store := newMemStore()
	svc := NewSubscriptionService(store)
	ctx := context.Background()

	sub, err := svc.OptIn(ctx, 42, "Dana")
	require.NoError(t, err)
	assert.Equal(t, int64(42), sub.UserID)
	assert.Equal(t, "Dana", sub.DisplayName)

	_, err = svc.OptIn(ctx, 42, "Dana")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	subs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestSubscriptionService_OptOutIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewSubscriptionService(store)
	ctx := context.Background()

	_, err := svc.OptIn(ctx, 7, "Eli")
	require.NoError(t, err)

	require.NoError(t, svc.OptOut(ctx, 7))
	require.NoError(t, svc.OptOut(ctx, 7))

	subs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// Opting back in after opting out works.
	_, err = svc.OptIn(ctx, 7, "Eli")
	require.NoError(t, err)
}

func TestSubscriptionService_StoreErrorsAreWrapped(t *testing.T) {
	store := newMemStore()
	store.setFail(true)
	svc := NewSubscriptionService(store)

	_, err := svc.OptIn(context.Background(), 1, "Fay")
	require.Error(t, err)
	assert.True(t, errors.Is(err, reminder.ErrPersistence))
	assert.False(t, errors.Is(err, ErrAlreadySubscribed))
}
