package outbox

import (
	"context"
	"time"
)

// Event is a notification record: a name, a metadata map, and a timestamp.
// Events are best-effort; no component may depend on their delivery for
// correctness.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	Meta() map[string]string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
