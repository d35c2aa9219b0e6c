package event

import "reflect"

// Payload is the ordered value list carried by an event. The zero value is
// the None marker: a well-defined "no payload", distinct from a payload whose
// single element happens to be nil.
type Payload struct {
	values  []any
	present bool
}

// None is the no-payload marker.
var None = Payload{}

// NewPayload builds a payload from an ordered value list. NewPayload with no
// arguments is an empty payload, which only a zero-field schema accepts;
// use None for "no payload at all".
func NewPayload(values ...any) Payload {
	vs := make([]any, len(values))
	copy(vs, values)
	return Payload{values: vs, present: true}
}

// IsNone reports whether this is the no-payload marker.
func (p Payload) IsNone() bool { return !p.present }

// Len returns the number of payload elements; zero for None.
func (p Payload) Len() int { return len(p.values) }

// Values returns a copy of the payload elements, nil for None.
func (p Payload) Values() []any {
	if !p.present {
		return nil
	}
	vs := make([]any, len(p.values))
	copy(vs, p.values)
	return vs
}

// Value returns the element at index i.
func (p Payload) Value(i int) any { return p.values[i] }

// Equal reports value equality of two payloads.
func (p Payload) Equal(other Payload) bool {
	if p.present != other.present || len(p.values) != len(other.values) {
		return false
	}
	for i := range p.values {
		if !reflect.DeepEqual(p.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

// Event binds a Kind to a payload that has been validated against the
// kind's schema. Events are immutable value objects; equality is by
// (kind, payload).
type Event struct {
	kind    *Kind
	payload Payload
	at      Timestamp // nil unless built through NewTimed
}

// New constructs an event, validating the payload against the kind's schema.
// On validation failure the schema's error is returned and no event exists.
func New(kind *Kind, payload Payload) (*Event, error) {
	if err := kind.Schema().Validate(payload); err != nil {
		return nil, err
	}
	return &Event{kind: kind, payload: payload}, nil
}

// NewUnchecked constructs an event without validating the payload. Intended
// for payload shapes that legitimately vary call to call; everything else
// should go through New.
func NewUnchecked(kind *Kind, payload Payload) *Event {
	return &Event{kind: kind, payload: payload}
}

// Kind returns the event's kind.
func (e *Event) Kind() *Kind { return e.kind }

// Payload returns the event's payload.
func (e *Event) Payload() Payload { return e.payload }

// At returns the event's timestamp, or nil for an untimed event.
func (e *Event) At() Timestamp { return e.at }

// Equal reports value equality by (kind, payload). Kinds compare by
// instance identity.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.kind == other.kind && e.payload.Equal(other.payload)
}
