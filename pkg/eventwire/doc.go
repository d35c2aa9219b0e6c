// Package eventwire implements a typed publish/subscribe event-notification
// core: producers announce state changes to registered listeners with
// schema-checked payloads and listener-lifetime-aware subscription
// bookkeeping.
//
// Delivery is synchronous and best-effort per listener. Fire validates the
// payload against the kind's schema, snapshots the subscriber list for that
// kind, and notifies each live listener in registration order on the calling
// goroutine. A failing listener never prevents the remaining listeners from
// being notified, and a weak-handle listener that has been collected is
// silently pruned.
//
// Basic use:
//
//	var PressureSchema = event.MustSchema("pressure", "sensor reading",
//		event.Field("pressure", "bar", reflect.TypeOf(float64(0))))
//	var Threshold = event.MustKind("sensor.threshold", PressureSchema)
//
//	p := eventwire.New()
//	p.Subscribe(Threshold, listener)
//	err := p.Fire(ctx, Threshold, 3.5)
//
// For delivery across a process boundary see package remote.
package eventwire
