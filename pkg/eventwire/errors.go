package eventwire

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by fire and subscribe calls on a closed producer.
var ErrClosed = errors.New("eventwire: producer closed")

// DeliveryError reports one listener's failed notification. It is never
// returned from Fire: a failing listener is isolated and the remaining
// snapshot is still delivered. Failures surface through the producer's
// OnDeliveryError hook, its logger, and its journal.
type DeliveryError struct {
	Kind     string
	Listener string
	Err      error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery of %q to %s failed: %v", e.Kind, e.Listener, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
