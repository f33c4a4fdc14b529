package catalog

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrConflict     = errors.New("catalog: product already exists")
	ErrInvalidName  = errors.New("catalog: name is required")
	ErrInvalidPrice = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock = errors.New("catalog: stock must be zero or greater")
	ErrEmptyPatch   = errors.New("catalog: no fields to update")
)

type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	CreatedAt   time.Time
}

func New(id, name, description string, priceCents int64, stock int, createdAt time.Time) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if priceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		PriceCents:  priceCents,
		Stock:       stock,
		CreatedAt:   createdAt,
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// ProductPatch is a typed partial update: nil fields are left untouched.
// It replaces string-built dynamic update statements at the store boundary.
type ProductPatch struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Stock       *int
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.PriceCents == nil && p.Stock == nil
}

func (p ProductPatch) Validate() error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.Name != nil && *p.Name == "" {
		return ErrInvalidName
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return ErrInvalidPrice
	}
	if p.Stock != nil && *p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// Apply mutates prod with the patch's set fields. Callers validate first.
func (p ProductPatch) Apply(prod *Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.PriceCents != nil {
		prod.PriceCents = *p.PriceCents
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
}
