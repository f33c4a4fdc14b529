package cart

import "fmt"

// ValidationError marks malformed caller input, fixable by the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "cart: " + e.Reason
}

func newValidation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InsufficientStockError is a business-rule rejection naming the offending
// product.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("cart: not enough stock for %s (requested %d, available %d)",
		e.ProductID, e.Requested, e.Available)
}
