package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domoutbox "github.com/storefront-labs/checkout/internal/domain/outbox"
)

type testEvent struct {
	name string
	at   time.Time
}

func (e testEvent) EventName() string       { return e.name }
func (e testEvent) OccurredAt() time.Time   { return e.at }
func (e testEvent) Meta() map[string]string { return map[string]string{"k": "v"} }

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan domoutbox.Event, 2)

	bus.Subscribe("payment_completed", func(ctx context.Context, e domoutbox.Event) error {
		received <- e
		return nil
	})
	bus.Subscribe("payment_completed", func(ctx context.Context, e domoutbox.Event) error {
		received <- e
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	evt := testEvent{name: "payment_completed", at: time.Now()}
	require.NoError(t, bus.Publish(ctx, evt))

	for i := 0; i < 2; i++ {
		select {
		case got := <-received:
			require.Equal(t, "payment_completed", got.EventName())
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not invoked")
		}
	}
}

func TestBus_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)
	received := make(chan struct{}, 1)

	bus.Subscribe("cart_saved", func(ctx context.Context, e domoutbox.Event) error {
		panic("boom")
	})
	bus.Subscribe("cart_saved", func(ctx context.Context, e domoutbox.Event) error {
		received <- struct{}{}
		return nil
	})

	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	require.NoError(t, bus.Publish(ctx, testEvent{name: "cart_saved", at: time.Now()}))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("surviving handler was not invoked")
	}
}

func TestBus_PublishNilEvent(t *testing.T) {
	bus := NewBus(nil)
	require.NoError(t, bus.Publish(context.Background(), nil))
}

func TestBus_EventWithoutSubscriberIsDropped(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()
	bus.Start(ctx)
	defer bus.Stop(ctx)

	require.NoError(t, bus.Publish(ctx, testEvent{name: "unknown", at: time.Now()}))
}
