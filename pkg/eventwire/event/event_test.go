package event_test

import (
	"testing"

	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
)

func TestPayload(t *testing.T) {
	p := event.NewPayload(2.5, "bar")

	if p.IsNone() {
		t.Error("constructed payload should not be None")
	}
	if p.Len() != 2 {
		t.Errorf("expected len 2, got %d", p.Len())
	}
	if p.Value(0) != 2.5 || p.Value(1) != "bar" {
		t.Errorf("unexpected elements: %v, %v", p.Value(0), p.Value(1))
	}

	// Values returns a copy.
	vs := p.Values()
	vs[0] = "mutated"
	if p.Value(0) != 2.5 {
		t.Error("Values() exposed internal state")
	}

	// None is distinct from an empty payload and from a nil-element payload.
	if !event.None.IsNone() {
		t.Error("None should report IsNone")
	}
	if event.NewPayload().IsNone() {
		t.Error("empty payload is not the None marker")
	}
	if event.NewPayload(nil).IsNone() {
		t.Error("payload carrying a nil element is not the None marker")
	}
	if event.None.Values() != nil {
		t.Error("None.Values() should be nil")
	}
}

func TestPayloadEqual(t *testing.T) {
	a := event.NewPayload(1, []string{"x"})
	b := event.NewPayload(1, []string{"x"})
	c := event.NewPayload(1, []string{"y"})

	if !a.Equal(b) {
		t.Error("deep-equal payloads should compare equal")
	}
	if a.Equal(c) {
		t.Error("payloads with different elements should not compare equal")
	}
	if a.Equal(event.None) || !event.None.Equal(event.None) {
		t.Error("None equality broken")
	}
	if event.None.Equal(event.NewPayload()) {
		t.Error("None should not equal an empty payload")
	}
}

func TestKindIdentity(t *testing.T) {
	a := event.MustKind("pump.threshold", event.NoPayload)
	b := event.MustKind("pump.threshold", event.NoPayload)

	if a == b {
		t.Fatal("two constructed kinds must be distinct instances")
	}
	if a.Name() != b.Name() {
		t.Error("same-named kinds should agree on Name")
	}
	if a.String() != "pump.threshold" {
		t.Errorf("unexpected String: %s", a.String())
	}

	if _, err := event.NewKind("", event.NoPayload); err == nil {
		t.Error("expected error for empty kind name")
	}
	if _, err := event.NewKind("x", nil); err == nil {
		t.Error("expected error for nil schema")
	}
}

func TestNewEvent(t *testing.T) {
	kind := event.MustKind("pump.pressure", event.MustSchema("pressure", "",
		event.Field("bar", "", floatType),
	))

	evt, err := event.New(kind, event.NewPayload(3.2))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if evt.Kind() != kind {
		t.Error("event should carry its kind instance")
	}
	if evt.Payload().Value(0) != 3.2 {
		t.Errorf("unexpected payload: %v", evt.Payload().Values())
	}
	if evt.At() != nil {
		t.Error("untimed event should have nil At")
	}

	// Validation failure yields no event.
	if _, err := event.New(kind, event.NewPayload("high")); err == nil {
		t.Error("expected validation failure")
	}

	// NewUnchecked skips validation entirely.
	raw := event.NewUnchecked(kind, event.NewPayload("high", 2))
	if raw.Payload().Len() != 2 {
		t.Error("NewUnchecked should keep the payload as given")
	}
}

func TestEventEqual(t *testing.T) {
	kind := event.MustKind("k", event.AnyPayload)
	other := event.MustKind("k", event.AnyPayload)

	a := event.NewUnchecked(kind, event.NewPayload(1))
	b := event.NewUnchecked(kind, event.NewPayload(1))
	c := event.NewUnchecked(kind, event.NewPayload(2))
	d := event.NewUnchecked(other, event.NewPayload(1))

	if !a.Equal(b) {
		t.Error("same kind and payload should compare equal")
	}
	if a.Equal(c) {
		t.Error("different payloads should not compare equal")
	}
	if a.Equal(d) {
		t.Error("same-named but distinct kinds should not compare equal")
	}
	if a.Equal(nil) {
		t.Error("event should not equal nil")
	}
}
