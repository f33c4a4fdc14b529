package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/checkout/internal/domain/challenge"
	domain "github.com/storefront-labs/checkout/internal/domain/order"
	"github.com/storefront-labs/checkout/internal/infrastructure/memory"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(t time.Time) *stepClock {
	return &stepClock{now: t.UTC()}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

func seedOrder(t *testing.T, repo *memory.OrderRepository, id, owner string, paid bool, createdAt time.Time) {
	t.Helper()
	ord, err := domain.New(id, owner, []domain.LineItem{{ProductID: "p1", Quantity: 1}}, 500, createdAt)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), ord))
	if paid {
		require.NoError(t, repo.MarkPaid(context.Background(), id, owner))
	}
}

func TestService_IssueChallenge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("issues a six digit code with five minute expiry", func(t *testing.T) {
		orders := memory.NewOrderRepository()
		challenges := memory.NewChallengeStore()
		seedOrder(t, orders, "ord-1", "user-1", false, now)

		svc := NewService(orders, challenges, newStepClock(now), nil, nil)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)
		require.Len(t, res.RawCode, 6)
		require.Equal(t, "****"+res.RawCode[4:], res.CodeMasked)

		ch, err := challenges.Get(context.Background(), "ord-1")
		require.NoError(t, err)
		require.Equal(t, res.RawCode, ch.Code)
		require.Equal(t, now.Add(5*time.Minute), ch.ExpiresAt)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc := NewService(memory.NewOrderRepository(), memory.NewChallengeStore(), newStepClock(now), nil, nil)

		_, err := svc.IssueChallenge(context.Background(), "missing", "user-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ownership mismatch reads as not found", func(t *testing.T) {
		orders := memory.NewOrderRepository()
		seedOrder(t, orders, "ord-1", "user-1", false, now)
		svc := NewService(orders, memory.NewChallengeStore(), newStepClock(now), nil, nil)

		_, err := svc.IssueChallenge(context.Background(), "ord-1", "someone-else")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("already paid", func(t *testing.T) {
		orders := memory.NewOrderRepository()
		seedOrder(t, orders, "ord-1", "user-1", true, now)
		svc := NewService(orders, memory.NewChallengeStore(), newStepClock(now), nil, nil)

		_, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.ErrorIs(t, err, domain.ErrAlreadyPaid)
	})

	t.Run("reissue overwrites the previous code", func(t *testing.T) {
		orders := memory.NewOrderRepository()
		challenges := memory.NewChallengeStore()
		seedOrder(t, orders, "ord-1", "user-1", false, now)
		svc := NewService(orders, challenges, newStepClock(now), nil, nil)

		first, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)
		second, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)

		ch, err := challenges.Get(context.Background(), "ord-1")
		require.NoError(t, err)
		require.Equal(t, second.RawCode, ch.Code)

		// Confirming with the superseded code must not succeed.
		if first.RawCode != second.RawCode {
			err = svc.ConfirmPayment(context.Background(), "ord-1", "user-1", first.RawCode)
			require.ErrorIs(t, err, challenge.ErrCodeMismatch)
		}
	})
}

func TestService_ConfirmPayment(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*Service, *memory.OrderRepository, *memory.ChallengeStore, *stepClock) {
		t.Helper()
		orders := memory.NewOrderRepository()
		challenges := memory.NewChallengeStore()
		clk := newStepClock(now)
		seedOrder(t, orders, "ord-1", "user-1", false, now)
		return NewService(orders, challenges, clk, nil, nil), orders, challenges, clk
	}

	t.Run("marks the order paid and consumes the challenge", func(t *testing.T) {
		svc, orders, challenges, _ := setup(t)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)

		require.NoError(t, svc.ConfirmPayment(context.Background(), "ord-1", "user-1", res.RawCode))

		ord, err := orders.GetOwned(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)
		require.True(t, ord.Paid)

		_, err = challenges.Get(context.Background(), "ord-1")
		require.ErrorIs(t, err, challenge.ErrNoChallenge)
	})

	t.Run("second confirm with the same code reports already paid", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)

		require.NoError(t, svc.ConfirmPayment(context.Background(), "ord-1", "user-1", res.RawCode))
		err = svc.ConfirmPayment(context.Background(), "ord-1", "user-1", res.RawCode)
		require.ErrorIs(t, err, domain.ErrAlreadyPaid)
	})

	t.Run("no challenge issued", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		err := svc.ConfirmPayment(context.Background(), "ord-1", "user-1", "123456")
		require.ErrorIs(t, err, challenge.ErrNoChallenge)
	})

	t.Run("succeeds just before expiry, fails just after", func(t *testing.T) {
		svc, _, challenges, clk := setup(t)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)
		expiresAt := now.Add(5 * time.Minute)

		clk.Set(expiresAt.Add(-time.Millisecond))
		require.NoError(t, svc.ConfirmPayment(context.Background(), "ord-1", "user-1", res.RawCode))

		// Fresh order and challenge, this time let it lapse.
		orders := memory.NewOrderRepository()
		seedOrder(t, orders, "ord-2", "user-1", false, now)
		clk2 := newStepClock(now)
		svc2 := NewService(orders, challenges, clk2, nil, nil)

		res2, err := svc2.IssueChallenge(context.Background(), "ord-2", "user-1")
		require.NoError(t, err)

		clk2.Set(now.Add(5 * time.Minute).Add(time.Millisecond))
		err = svc2.ConfirmPayment(context.Background(), "ord-2", "user-1", res2.RawCode)
		require.ErrorIs(t, err, challenge.ErrExpired)

		// Lazy eviction: the expired challenge is gone.
		err = svc2.ConfirmPayment(context.Background(), "ord-2", "user-1", res2.RawCode)
		require.ErrorIs(t, err, challenge.ErrNoChallenge)
	})

	t.Run("wrong code keeps the challenge for retries", func(t *testing.T) {
		svc, orders, _, _ := setup(t)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)

		wrong := "000000"
		if wrong == res.RawCode {
			wrong = "000001"
		}
		for i := 0; i < 3; i++ {
			err = svc.ConfirmPayment(context.Background(), "ord-1", "user-1", wrong)
			require.ErrorIs(t, err, challenge.ErrCodeMismatch)
		}

		// No lockout: the correct code still works before expiry.
		require.NoError(t, svc.ConfirmPayment(context.Background(), "ord-1", "user-1", res.RawCode))
		ord, err := orders.GetOwned(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)
		require.True(t, ord.Paid)
	})

	t.Run("concurrent confirms yield exactly one success", func(t *testing.T) {
		svc, orders, _, _ := setup(t)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)

		const attempts = 8
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = svc.ConfirmPayment(context.Background(), "ord-1", "user-1", res.RawCode)
			}()
		}
		wg.Wait()

		successes := 0
		for _, e := range errs {
			switch {
			case e == nil:
				successes++
			case errors.Is(e, domain.ErrAlreadyPaid), errors.Is(e, challenge.ErrNoChallenge):
				// Losers observe the stale state, never a second charge.
			default:
				t.Fatalf("unexpected error: %v", e)
			}
		}
		require.Equal(t, 1, successes)

		ord, err := orders.GetOwned(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)
		require.True(t, ord.Paid)
	})

	t.Run("ownership mismatch reads as not found", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		res, err := svc.IssueChallenge(context.Background(), "ord-1", "user-1")
		require.NoError(t, err)

		err = svc.ConfirmPayment(context.Background(), "ord-1", "intruder", res.RawCode)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
