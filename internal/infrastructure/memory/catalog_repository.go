package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/storefront-labs/checkout/internal/domain/catalog"
)

type CatalogRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *CatalogRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		out = append(out, product.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CatalogRepository) Insert(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return fmt.Errorf("catalog repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return domain.ErrConflict
	}
	r.products[product.ID] = product.Clone()
	return nil
}

func (r *CatalogRepository) Update(ctx context.Context, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	patch.Apply(product)
	return product.Clone(), nil
}

func (r *CatalogRepository) Delete(ctx context.Context, productID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[productID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, productID)
	return nil
}
