package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: already exists")
	ErrAlreadyPaid     = errors.New("order: already paid")
	ErrEmptyItems      = errors.New("order: at least one item is required")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount   = errors.New("order: amount must be zero or greater")
)

// LineItem references a catalog product by id. Unit prices are not stored per
// line; the order keeps a total snapshot computed at creation time.
type LineItem struct {
	ProductID string
	Quantity  int
}

// Order is a priced cart. It is created once as a draft (Paid=false), makes
// exactly one Paid false→true transition, and is never re-priced or deleted.
type Order struct {
	ID          string
	OwnerID     string
	Items       []LineItem
	AmountCents int64
	Paid        bool
	CreatedAt   time.Time
}

func New(id, ownerID string, items []LineItem, amountCents int64, createdAt time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if amountCents < 0 {
		return nil, ErrInvalidAmount
	}
	return &Order{
		ID:          id,
		OwnerID:     ownerID,
		Items:       append([]LineItem(nil), items...),
		AmountCents: amountCents,
		Paid:        false,
		CreatedAt:   createdAt,
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}
