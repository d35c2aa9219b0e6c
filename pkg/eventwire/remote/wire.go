package remote

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
)

// codec is the wire codec for all bridge traffic.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Role classifies what a binding points at.
type Role string

const (
	RoleProducer Role = "producer"
	RoleListener Role = "listener"
)

// Binding is one naming-registry entry: a name mapped to the network
// address of a producer or listener endpoint.
type Binding struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
	Addr string `json:"addr"`
}

// wireTime carries a timestamp across the boundary. Exactly one field is
// set.
type wireTime struct {
	Wall *time.Time `json:"wall,omitempty"`
	Seq  *uint64    `json:"seq,omitempty"`
}

// toWireTime converts a Timestamp for transport. Unknown timestamp types
// are dropped: the event arrives untimed on the far side.
func toWireTime(ts event.Timestamp) *wireTime {
	switch t := ts.(type) {
	case event.WallClock:
		w := t.Time()
		return &wireTime{Wall: &w}
	case event.Sequence:
		s := uint64(t)
		return &wireTime{Seq: &s}
	default:
		return nil
	}
}

// timestamp converts back to an event.Timestamp; nil when unset.
func (w *wireTime) timestamp() event.Timestamp {
	switch {
	case w == nil:
		return nil
	case w.Wall != nil:
		return event.WallClock(*w.Wall)
	case w.Seq != nil:
		return event.Sequence(*w.Seq)
	default:
		return nil
	}
}

// notifyRequest is one event crossing the wire to a listener.
type notifyRequest struct {
	Kind   string    `json:"kind"`
	None   bool      `json:"none,omitempty"` // payload is the no-payload marker
	Values []any     `json:"values,omitempty"`
	At     *wireTime `json:"at,omitempty"`
}

// payload rebuilds the event payload from the wire form.
func (r *notifyRequest) payload() event.Payload {
	if r.None {
		return event.None
	}
	return event.NewPayload(r.Values...)
}

// newNotifyRequest flattens an event for transport.
func newNotifyRequest(evt *event.Event) notifyRequest {
	return notifyRequest{
		Kind:   evt.Kind().Name(),
		None:   evt.Payload().IsNone(),
		Values: evt.Payload().Values(),
		At:     toWireTime(evt.At()),
	}
}

// fireRequest asks a remote producer to fire.
type fireRequest struct {
	Kind      string    `json:"kind"`
	None      bool      `json:"none,omitempty"`
	Values    []any     `json:"values,omitempty"`
	At        *wireTime `json:"at,omitempty"`
	Unchecked bool      `json:"unchecked,omitempty"`
}

// addListenerRequest asks a remote producer to subscribe a bound listener.
type addListenerRequest struct {
	Kind     string `json:"kind"`
	Listener string `json:"listener"`
}

// errorResponse carries an error message back to the caller.
type errorResponse struct {
	Error string `json:"error"`
}
