package order

import (
	"strconv"
	"time"
)

const (
	EventCartSaved        = "cart_saved"
	EventPaymentInitiated = "payment_initiated"
	EventPaymentCompleted = "payment_completed"
)

// CartSavedEvent is emitted after a draft order is persisted.
type CartSavedEvent struct {
	OrderID     string
	OwnerID     string
	AmountCents int64
	At          time.Time
}

func NewCartSavedEvent(o *Order, at time.Time) CartSavedEvent {
	return CartSavedEvent{
		OrderID:     o.ID,
		OwnerID:     o.OwnerID,
		AmountCents: o.AmountCents,
		At:          at,
	}
}

func (CartSavedEvent) EventName() string       { return EventCartSaved }
func (e CartSavedEvent) OccurredAt() time.Time { return e.At }
func (e CartSavedEvent) Meta() map[string]string {
	return map[string]string{
		"order_id":     e.OrderID,
		"owner_id":     e.OwnerID,
		"amount_cents": strconv.FormatInt(e.AmountCents, 10),
	}
}

// PaymentInitiatedEvent is emitted when a challenge is issued for an order.
type PaymentInitiatedEvent struct {
	OrderID string
	OwnerID string
	At      time.Time
}

func (PaymentInitiatedEvent) EventName() string       { return EventPaymentInitiated }
func (e PaymentInitiatedEvent) OccurredAt() time.Time { return e.At }
func (e PaymentInitiatedEvent) Meta() map[string]string {
	return map[string]string{"order_id": e.OrderID, "owner_id": e.OwnerID}
}

// PaymentCompletedEvent is emitted after the paid transition commits.
type PaymentCompletedEvent struct {
	OrderID string
	OwnerID string
	At      time.Time
}

func (PaymentCompletedEvent) EventName() string       { return EventPaymentCompleted }
func (e PaymentCompletedEvent) OccurredAt() time.Time { return e.At }
func (e PaymentCompletedEvent) Meta() map[string]string {
	return map[string]string{"order_id": e.OrderID, "owner_id": e.OwnerID}
}
