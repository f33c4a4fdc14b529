package order

import "context"

type Repository interface {
	// Insert persists a new draft. Returns ErrConflict when the id exists.
	Insert(ctx context.Context, order *Order) error

	// GetOwned returns the order only when it belongs to ownerID. A missing
	// order and an ownership mismatch are both ErrNotFound so existence is
	// not leaked across owners.
	GetOwned(ctx context.Context, id, ownerID string) (*Order, error)

	// ListByOwner returns the owner's orders newest first by CreatedAt.
	ListByOwner(ctx context.Context, ownerID string) ([]*Order, error)

	// MarkPaid performs the Paid false→true transition conditionally: the
	// update must be a compare-and-set on the current Paid value, never a
	// blind overwrite. Returns ErrAlreadyPaid when the order is paid and
	// ErrNotFound under the same rules as GetOwned.
	MarkPaid(ctx context.Context, id, ownerID string) error
}
