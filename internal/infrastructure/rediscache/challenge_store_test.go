package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/checkout/internal/clock"
	domain "github.com/storefront-labs/checkout/internal/domain/challenge"
)

func TestChallengeStore_PutRejectsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewChallengeStore(redis.NewClient(&redis.Options{}), clock.NewFixed(now))

	// The deadline check uses the injected clock, not the wall clock, and a
	// lapsed challenge is an error rather than a silent drop. No redis call
	// happens on this path.
	err := store.Put(context.Background(), domain.Challenge{
		OrderID:   "ord-1",
		Code:      "123456",
		ExpiresAt: now.Add(-time.Second),
	})
	require.Error(t, err)

	err = store.Put(context.Background(), domain.Challenge{
		OrderID:   "ord-1",
		Code:      "123456",
		ExpiresAt: now,
	})
	require.Error(t, err)
}
