package remote_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/eventwire/pkg/eventwire"
	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
	"github.com/randalmurphal/eventwire/pkg/eventwire/remote"
)

var readingKind = event.MustKind("sensor.reading", event.MustSchema("sensor.reading", "",
	event.Field("value", "sample value", reflect.TypeOf(float64(0))),
))

// sink records notifications; deliveries arrive on HTTP handler goroutines.
type sink struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (s *sink) Notify(ctx context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *sink) snapshot() []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*event.Event(nil), s.events...)
}

func (s *sink) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func TestRemoteDelivery(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "gauge", far, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	producer := eventwire.New(eventwire.WithName("sensor"))
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}
	if err := client.AddListener(ctx, "sensor.reading", "gauge"); err != nil {
		t.Fatalf("AddListener failed: %v", err)
	}

	// A remote fire crosses producer and listener boundaries.
	if err := client.Fire(ctx, "sensor.reading", 2.5); err != nil {
		t.Fatalf("remote Fire failed: %v", err)
	}
	events := far.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(events))
	}
	if events[0].Kind().Name() != "sensor.reading" {
		t.Errorf("unexpected kind: %s", events[0].Kind().Name())
	}
	// The listener-side kind revalidated the payload against its schema.
	if events[0].Kind() != readingKind {
		t.Error("listener should resolve the kind name to its registered instance")
	}
	if events[0].Payload().Value(0) != 2.5 {
		t.Errorf("unexpected payload: %v", events[0].Payload().Values())
	}

	// A local fire on the producer reaches the remote listener too.
	if err := producer.Fire(ctx, readingKind, 7.0); err != nil {
		t.Fatalf("local Fire failed: %v", err)
	}
	if len(far.snapshot()) != 2 {
		t.Error("local fires should fan out to remote listeners")
	}
}

func TestRemoteAddListenerDedupe(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "gauge", far, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	producer := eventwire.New()
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}

	// Re-adding the same bound listener is not a second subscription.
	for range 3 {
		if err := client.AddListener(ctx, "sensor.reading", "gauge"); err != nil {
			t.Fatalf("AddListener failed: %v", err)
		}
	}
	if n := producer.CountSubscribers(readingKind); n != 1 {
		t.Fatalf("expected 1 subscription, got %d", n)
	}
	if err := client.Fire(ctx, "sensor.reading", 1.0); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if len(far.snapshot()) != 1 {
		t.Error("a deduplicated listener must be notified exactly once")
	}

	// RemoveListener drops the subscription.
	if err := client.RemoveListener(ctx, "sensor.reading", "gauge"); err != nil {
		t.Fatalf("RemoveListener failed: %v", err)
	}
	if producer.CountSubscribers(readingKind) != 0 {
		t.Error("expected no subscriptions after RemoveListener")
	}
	if err := client.RemoveListener(ctx, "sensor.reading", "gauge"); err == nil {
		t.Error("removing an unknown listener should fail")
	}
}

func TestRemoteValidation(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	producer := eventwire.New()
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}

	// Schema rejection travels back to the remote caller.
	if err := client.Fire(ctx, "sensor.reading", "not a number"); err == nil {
		t.Error("expected validation failure for a string value")
	}
	if err := client.Fire(ctx, "sensor.reading", 1.0, 2.0); err == nil {
		t.Error("expected arity failure")
	}

	// JSON carries numbers as float64; an integer fired remotely arrives as
	// one and passes a float64 schema.
	if err := client.Fire(ctx, "sensor.reading", 3); err != nil {
		t.Errorf("expected integer accepted via float64 degradation, got %v", err)
	}

	// FireUnchecked skips producer-side validation.
	if err := client.FireUnchecked(ctx, "sensor.reading", "not a number"); err != nil {
		t.Errorf("FireUnchecked failed: %v", err)
	}

	// Unknown kind names are rejected outright.
	if err := client.Fire(ctx, "no.such.kind", 1.0); err == nil {
		t.Error("expected unknown kind rejected")
	}
}

func TestRemoteTimedFire(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "gauge", far, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	producer := eventwire.New()
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}
	if err := client.AddListener(ctx, "sensor.reading", "gauge"); err != nil {
		t.Fatalf("AddListener failed: %v", err)
	}

	at := event.WallClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	if err := client.FireTimed(ctx, "sensor.reading", at, 2.5); err != nil {
		t.Fatalf("FireTimed failed: %v", err)
	}

	events := far.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(events))
	}
	got := events[0].At()
	if got == nil || got.Compare(at) != 0 {
		t.Errorf("timestamp lost in transit: %v", got)
	}
}

func TestRemoteFailureIsolation(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	var failures []*eventwire.DeliveryError
	producer := eventwire.New(eventwire.WithOnDeliveryError(func(e *eventwire.DeliveryError) {
		failures = append(failures, e)
	}))
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "gauge", far, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}

	local := &sink{}
	producer.Subscribe(readingKind, local)

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}
	if err := client.AddListener(ctx, "sensor.reading", "gauge"); err != nil {
		t.Fatalf("AddListener failed: %v", err)
	}

	// A listener error crosses the wire as that listener's delivery failure.
	far.fail(errors.New("gauge rejected the reading"))
	if err := producer.Fire(ctx, readingKind, 2.5); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 delivery failure, got %d", len(failures))
	}
	if failures[0].Listener != "remote:gauge" {
		t.Errorf("unexpected failing listener: %s", failures[0].Listener)
	}
	if len(local.snapshot()) != 1 {
		t.Error("local listeners must be unaffected by a remote failure")
	}

	// A dead endpoint behaves the same: isolated, not fatal.
	ls.Close()
	far.fail(nil)
	if err := producer.Fire(ctx, readingKind, 2.5); err != nil {
		t.Fatalf("Fire after listener shutdown failed: %v", err)
	}
	if len(failures) != 2 {
		t.Errorf("expected the unreachable listener reported, got %d failures", len(failures))
	}
	if len(local.snapshot()) != 2 {
		t.Error("local delivery must continue past an unreachable remote")
	}
}

func TestLookupProducerRole(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	ls, err := remote.ServeListener(ctx, reg, "gauge", &sink{}, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	// A listener binding is not a producer.
	if _, err := remote.LookupProducer(ctx, reg, "gauge"); err == nil {
		t.Error("expected role mismatch error")
	}
	if _, err := remote.LookupProducer(ctx, reg, "nobody"); !errors.Is(err, remote.ErrNotBound) {
		t.Errorf("expected ErrNotBound, got %v", err)
	}
}

func TestServeRebindsConflict(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	ls, err := remote.ServeListener(ctx, reg, "taken", &sink{}, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	// The name is held until the first server unbinds.
	if _, err := remote.ServeListener(ctx, reg, "taken", &sink{}, nil); !errors.Is(err, remote.ErrAlreadyBound) {
		t.Errorf("expected ErrAlreadyBound, got %v", err)
	}
	if _, err := remote.ServeProducer(ctx, reg, "taken", eventwire.New(), nil); !errors.Is(err, remote.ErrAlreadyBound) {
		t.Errorf("expected ErrAlreadyBound, got %v", err)
	}
}

func TestUnregisteredKindArrivesSchemaless(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	// The listener did not register the kind name it is notified about.
	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "gauge", far, nil)
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	producer := eventwire.New()
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}
	if err := client.AddListener(ctx, "sensor.reading", "gauge"); err != nil {
		t.Fatalf("AddListener failed: %v", err)
	}
	if err := client.Fire(ctx, "sensor.reading", 2.5); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}

	events := far.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(events))
	}
	if events[0].Kind().Name() != "sensor.reading" {
		t.Errorf("unexpected kind name: %s", events[0].Kind().Name())
	}
	if events[0].Kind().Schema() != event.AnyPayload {
		t.Error("an unregistered kind should arrive under the AnyPayload schema")
	}
}

func TestEndpointAddresses(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	// An explicit advertise address is what the registry publishes, not the
	// listen address; it is how an endpoint behind a wildcard bind or NAT
	// stays reachable from other machines.
	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "gauge", far, []*event.Kind{readingKind},
		remote.WithBindAddress("127.0.0.1:0"),
		remote.WithAdvertiseAddress("gauge.internal:7500"))
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	b, err := reg.Lookup(ctx, "gauge")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if b.Addr != "gauge.internal:7500" {
		t.Errorf("binding should carry the advertise address, got %q", b.Addr)
	}
	if ls.Addr() == "gauge.internal:7500" {
		t.Error("the listen address should stay the real bound socket")
	}

	// Without an override the binding carries the listen address.
	producer := eventwire.New()
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	b, err = reg.Lookup(ctx, "sensor")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if b.Addr != ps.Addr() {
		t.Errorf("binding addr %q should default to the listen addr %q", b.Addr, ps.Addr())
	}
}

func TestRemoveListenerEscapedNames(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	far := &sink{}
	ls, err := remote.ServeListener(ctx, reg, "plant/line-3/gauge", far, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeListener failed: %v", err)
	}
	defer ls.Close()

	producer := eventwire.New()
	ps, err := remote.ServeProducer(ctx, reg, "sensor", producer, []*event.Kind{readingKind})
	if err != nil {
		t.Fatalf("ServeProducer failed: %v", err)
	}
	defer ps.Close()

	client, err := remote.LookupProducer(ctx, reg, "sensor")
	if err != nil {
		t.Fatalf("LookupProducer failed: %v", err)
	}
	if err := client.AddListener(ctx, "sensor.reading", "plant/line-3/gauge"); err != nil {
		t.Fatalf("AddListener failed: %v", err)
	}
	if producer.CountSubscribers(readingKind) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", producer.CountSubscribers(readingKind))
	}

	// The slashed name addresses the subscription, not a nested route.
	if err := client.RemoveListener(ctx, "sensor.reading", "plant/line-3/gauge"); err != nil {
		t.Fatalf("RemoveListener failed: %v", err)
	}
	if producer.CountSubscribers(readingKind) != 0 {
		t.Errorf("expected 0 subscribers, got %d", producer.CountSubscribers(readingKind))
	}
}
