package event

import "time"

// Timestamp is any totally ordered point in time: wall-clock, a logical
// sequence number, or a domain-specific time type. Compare follows the usual
// contract (negative, zero, positive). Comparing timestamps of different
// concrete types has no defined order; keep one timestamp type per producer.
type Timestamp interface {
	Compare(other Timestamp) int
}

// WallClock is a wall-clock Timestamp.
type WallClock time.Time

// Now returns the current wall-clock timestamp.
func Now() WallClock { return WallClock(time.Now()) }

// Compare implements Timestamp.
func (w WallClock) Compare(other Timestamp) int {
	return time.Time(w).Compare(time.Time(other.(WallClock)))
}

// Time returns the underlying time.Time.
func (w WallClock) Time() time.Time { return time.Time(w) }

// Sequence is a logical-time Timestamp: a monotonically assigned counter.
type Sequence uint64

// Compare implements Timestamp.
func (s Sequence) Compare(other Timestamp) int {
	o := other.(Sequence)
	switch {
	case s < o:
		return -1
	case s > o:
		return 1
	default:
		return 0
	}
}

// TimedEvent is an Event stamped with a Timestamp and orderable by it.
// Each fire produces a fresh instance; timed events are never merged or
// deduplicated, and ties in Compare are not broken by any other field.
//
// TimedEvent shares the underlying Event, so listeners receiving the *Event
// side of a timed fire still see the timestamp through At.
type TimedEvent struct {
	*Event
}

// NewTimed constructs a timed event, validating the payload against the
// kind's schema. The timestamp must be non-nil.
func NewTimed(kind *Kind, at Timestamp, payload Payload) (*TimedEvent, error) {
	if at == nil {
		return nil, &InvalidSchemaError{Name: kind.Name(), Message: "timed event requires a timestamp"}
	}
	evt, err := New(kind, payload)
	if err != nil {
		return nil, err
	}
	evt.at = at
	return &TimedEvent{Event: evt}, nil
}

// NewTimedUnchecked is NewTimed without payload validation.
func NewTimedUnchecked(kind *Kind, at Timestamp, payload Payload) *TimedEvent {
	evt := NewUnchecked(kind, payload)
	evt.at = at
	return &TimedEvent{Event: evt}
}

// Compare orders purely by timestamp.
func (t *TimedEvent) Compare(other *TimedEvent) int {
	return t.at.Compare(other.at)
}
