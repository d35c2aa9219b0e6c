package eventwire

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
	"github.com/randalmurphal/eventwire/pkg/eventwire/journal"
	"github.com/randalmurphal/eventwire/pkg/eventwire/observability"
)

// Producer orchestrates validation, event construction, and synchronous
// fan-out delivery to subscribed listeners. It owns its subscription
// registry exclusively.
//
// Fire executes entirely on the calling goroutine and returns only after
// every handle in the snapshot has been attempted. There is no queue and no
// background delivery; a slow listener delays everything behind it.
type Producer struct {
	cfg    producerConfig
	subs   *Subscriptions
	closed atomic.Bool
}

// New creates a producer.
func New(opts ...Option) *Producer {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Producer{
		cfg:  cfg,
		subs: NewSubscriptions(),
	}
}

// Name returns the producer's name.
func (p *Producer) Name() string { return p.cfg.name }

// Subscribe registers a listener for a kind under a strong handle, keeping
// the listener reachable until it unsubscribes. It returns true when a new
// subscription was created; re-subscribing an already subscribed listener
// updates its handle in place and returns false.
func (p *Producer) Subscribe(kind *event.Kind, l Listener) bool {
	return p.SubscribeHandle(kind, Strong(l))
}

// SubscribeHandle registers a pre-built handle for a kind.
func (p *Producer) SubscribeHandle(kind *event.Kind, h Handle) bool {
	if p.closed.Load() {
		return false
	}
	return p.subs.Add(kind, h)
}

// SubscribeWeak registers a listener under a weak handle: the subscription
// does not keep the listener reachable, and once the listener is collected
// it is pruned during the next delivery.
func SubscribeWeak[T any, P interface {
	*T
	Listener
}](p *Producer, kind *event.Kind, l P) bool {
	return p.SubscribeHandle(kind, Weak[T, P](l))
}

// Unsubscribe drops the listener's subscription to a kind.
func (p *Producer) Unsubscribe(kind *event.Kind, l Listener) bool {
	return p.subs.Remove(kind, l)
}

// UnsubscribeAll clears every subscription and returns the number dropped.
func (p *Producer) UnsubscribeAll() int {
	return p.subs.RemoveAll()
}

// UnsubscribeAllMatching drops every subscription whose listener satisfies
// pred and returns the number dropped.
func (p *Producer) UnsubscribeAllMatching(pred func(Listener) bool) int {
	return p.subs.RemoveAllMatching(pred)
}

// HasSubscribers reports whether any kind has subscriptions.
func (p *Producer) HasSubscribers() bool {
	return p.subs.HasSubscribers()
}

// CountSubscribers returns the number of subscriptions for a kind. Weak
// handles whose listener has been collected count until the next delivery
// prunes them.
func (p *Producer) CountSubscribers(kind *event.Kind) int {
	return p.subs.Count(kind)
}

// Fire validates the payload against the kind's schema, builds an immutable
// event, and delivers it synchronously to every listener subscribed to the
// kind, in registration order.
//
// A validation failure is returned to the caller and nothing is delivered.
// Per-listener delivery failures are NOT returned: they are isolated,
// reported through the OnDeliveryError hook, the logger, the journal, and
// metrics, and delivery continues with the next listener.
func (p *Producer) Fire(ctx context.Context, kind *event.Kind, values ...any) error {
	return p.fire(ctx, kind, payloadOf(values), nil, true)
}

// FireTimed is Fire with a timestamp; listeners observe it via Event.At.
// A nil timestamp is rejected: use Fire for untimed events.
func (p *Producer) FireTimed(ctx context.Context, kind *event.Kind, at event.Timestamp, values ...any) error {
	if at == nil {
		return fmt.Errorf("eventwire: timed fire requires a timestamp")
	}
	return p.fire(ctx, kind, payloadOf(values), at, true)
}

// FireUnchecked is Fire without schema validation. Intended for payload
// shapes that legitimately vary call to call; it differs from Fire only by
// omitting the validation step.
func (p *Producer) FireUnchecked(ctx context.Context, kind *event.Kind, values ...any) error {
	return p.fire(ctx, kind, payloadOf(values), nil, false)
}

// FireTimedUnchecked is FireTimed without schema validation. A nil timestamp
// is rejected just as for FireTimed.
func (p *Producer) FireTimedUnchecked(ctx context.Context, kind *event.Kind, at event.Timestamp, values ...any) error {
	if at == nil {
		return fmt.Errorf("eventwire: timed fire requires a timestamp")
	}
	return p.fire(ctx, kind, payloadOf(values), at, false)
}

// Close clears the subscription registry. Subsequent fires fail with
// ErrClosed.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.subs.RemoveAll()
	return nil
}

// payloadOf maps a variadic value list to a payload: no values means the
// no-payload marker.
func payloadOf(values []any) event.Payload {
	if len(values) == 0 {
		return event.None
	}
	return event.NewPayload(values...)
}

func (p *Producer) fire(ctx context.Context, kind *event.Kind, payload event.Payload, at event.Timestamp, validate bool) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if kind == nil {
		return fmt.Errorf("eventwire: fire requires a kind")
	}

	start := time.Now()
	evt, err := p.buildEvent(kind, payload, at, validate)
	p.cfg.metrics.RecordFire(ctx, kind.Name(), time.Since(start), err)
	if err != nil {
		return err
	}

	p.deliver(ctx, kind, evt)
	return nil
}

func (p *Producer) buildEvent(kind *event.Kind, payload event.Payload, at event.Timestamp, validate bool) (*event.Event, error) {
	switch {
	case at != nil && validate:
		t, err := event.NewTimed(kind, at, payload)
		if err != nil {
			return nil, err
		}
		return t.Event, nil
	case at != nil:
		return event.NewTimedUnchecked(kind, at, payload).Event, nil
	case validate:
		return event.New(kind, payload)
	default:
		return event.NewUnchecked(kind, payload), nil
	}
}

// deliver fans the event out to a point-in-time snapshot of the kind's
// handles. Handles whose listener has been collected are pruned; everything
// else is notified in registration order.
func (p *Producer) deliver(ctx context.Context, kind *event.Kind, evt *event.Event) {
	snapshot := p.subs.Snapshot(kind)
	if len(snapshot) == 0 {
		return
	}

	ctx, span := p.cfg.spans.StartFireSpan(ctx, kind.Name(), len(snapshot))
	defer p.cfg.spans.EndSpanWithError(span, nil)

	delivered, failed, pruned := 0, 0, 0
	for _, h := range snapshot {
		l, ok := h.Resolve()
		if !ok {
			p.subs.prune(kind, h)
			p.cfg.metrics.RecordPrunedHandle(ctx, kind.Name())
			observability.LogPrunedHandle(p.cfg.logger, kind.Name())
			pruned++
			continue
		}

		dctx, dspan := p.cfg.spans.StartDeliverySpan(ctx, kind.Name(), listenerName(l))
		dstart := time.Now()
		err := notify(dctx, l, evt)
		p.cfg.spans.EndSpanWithError(dspan, err)
		p.cfg.metrics.RecordDelivery(ctx, kind.Name(), time.Since(dstart), err)

		if err != nil {
			failed++
			p.reportFailure(ctx, kind, evt, l, err)
			continue
		}
		delivered++
	}

	observability.LogFire(p.cfg.logger, kind.Name(), delivered, failed, pruned)
}

// notify invokes the listener, converting a panic into an error so one
// misbehaving listener cannot take down the fan-out.
func notify(ctx context.Context, l Listener, evt *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.Notify(ctx, evt)
}

func (p *Producer) reportFailure(ctx context.Context, kind *event.Kind, evt *event.Event, l Listener, err error) {
	derr := &DeliveryError{
		Kind:     kind.Name(),
		Listener: listenerName(l),
		Err:      err,
	}
	observability.LogDeliveryError(p.cfg.logger, derr.Kind, derr.Listener, err)
	if p.cfg.onError != nil {
		p.cfg.onError(derr)
	}
	if p.cfg.journal != nil {
		payload, _ := json.Marshal(evt.Payload().Values())
		fd := journal.NewFailedDelivery(derr.Kind, derr.Listener, payload, err)
		if jerr := p.cfg.journal.Record(ctx, fd); jerr != nil && p.cfg.logger != nil {
			p.cfg.logger.Warn("journal write failed", "error", jerr)
		}
	}
}

// listenerName describes a listener for logs and journal records. Remote
// proxies implement fmt.Stringer with their registered name.
func listenerName(l Listener) string {
	if s, ok := l.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", l)
}
