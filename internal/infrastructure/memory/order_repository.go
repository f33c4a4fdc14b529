package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/storefront-labs/checkout/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}

	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) GetOwned(ctx context.Context, id, ownerID string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok || order.OwnerID != ownerID {
		// Ownership mismatch reads identically to missing.
		return nil, domain.ErrNotFound
	}

	return order.Clone(), nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Order
	for _, order := range r.orders {
		if order.OwnerID == ownerID {
			out = append(out, order.Clone())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// MarkPaid flips Paid false→true under the write lock, so the check and the
// update are one atomic step: of two racing confirms only one succeeds.
func (r *OrderRepository) MarkPaid(ctx context.Context, id, ownerID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if order.Paid {
		return domain.ErrAlreadyPaid
	}

	order.Paid = true
	return nil
}
