package catalog

import "time"

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
)

// ProductEvent covers the catalog CRUD notifications; they share a shape.
type ProductEvent struct {
	Name      string
	ProductID string
	ActorID   string
	At        time.Time
}

func (e ProductEvent) EventName() string     { return e.Name }
func (e ProductEvent) OccurredAt() time.Time { return e.At }
func (e ProductEvent) Meta() map[string]string {
	return map[string]string{"product_id": e.ProductID, "actor_id": e.ActorID}
}
