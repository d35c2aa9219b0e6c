package eventwire

import (
	"context"

	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
)

// Listener receives events from a producer. It is the single capability a
// subscriber needs; any type with a Notify method can subscribe.
//
// Notify runs synchronously on the firing goroutine. A slow listener delays
// the producer and every listener still pending in the same fire. Returning
// an error (or panicking) marks this listener's delivery as failed without
// affecting the others.
type Listener interface {
	Notify(ctx context.Context, evt *event.Event) error
}

// ListenerFunc adapts a function to the Listener interface.
//
// Function values have no reliable identity, so two subscriptions of
// separately constructed ListenerFunc values are treated as distinct
// listeners. Use a pointer receiver type when unsubscribe-by-listener or
// re-subscribe deduplication matters.
type ListenerFunc func(ctx context.Context, evt *event.Event) error

// Notify implements Listener.
func (f ListenerFunc) Notify(ctx context.Context, evt *event.Event) error {
	return f(ctx, evt)
}
