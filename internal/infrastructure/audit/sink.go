package audit

import (
	"context"

	domoutbox "github.com/storefront-labs/checkout/internal/domain/outbox"
	"github.com/storefront-labs/checkout/internal/observability"
)

// Sink renders audit events as structured log records. It stands in for an
// external audit trail; nothing in the checkout flow depends on it.
type Sink struct {
	log observability.Logger
}

func New(logger observability.Logger) *Sink {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Sink{log: logger.With(observability.F("component", "audit_sink"))}
}

// Register subscribes the sink to the given event names on the bus.
func (s *Sink) Register(sub domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		sub.Subscribe(name, s.Handle)
	}
}

func (s *Sink) Handle(ctx context.Context, e domoutbox.Event) error {
	_ = ctx

	fields := []observability.Field{
		observability.F("event", e.EventName()),
		observability.F("occurred_at", e.OccurredAt()),
	}
	for k, v := range e.Meta() {
		fields = append(fields, observability.F(k, v))
	}
	s.log.Info("audit_event", fields...)
	return nil
}
