package catalog

import "context"

// Reader is the read-only view the checkout core depends on. The core never
// mutates catalog state; stock is validated, not reserved.
type Reader interface {
	Get(ctx context.Context, productID string) (*Product, error)
}

// Repository is the full store surface used by the catalog CRUD service.
type Repository interface {
	Reader
	List(ctx context.Context) ([]*Product, error)
	Insert(ctx context.Context, product *Product) error
	Update(ctx context.Context, productID string, patch ProductPatch) (*Product, error)
	Delete(ctx context.Context, productID string) error
}
