package eventwire

import (
	"reflect"
	"sync/atomic"
	"weak"
)

// RefKind selects how a subscription holds its listener.
type RefKind int

const (
	// StrongRef keeps the listener reachable for as long as the
	// subscription exists.
	StrongRef RefKind = iota

	// WeakRef does not keep the listener reachable; once the listener is
	// collected the subscription is pruned during the next delivery.
	WeakRef
)

// String implements fmt.Stringer.
func (r RefKind) String() string {
	if r == WeakRef {
		return "weak"
	}
	return "strong"
}

// Handle is an immutable indirection over a subscribed listener, created at
// subscription time. A strong handle always resolves; a weak handle may
// report its listener gone, and once gone it stays gone.
type Handle interface {
	// Resolve returns the listener, or false if it has been collected.
	Resolve() (Listener, bool)

	// Matches reports whether the handle currently refers to l.
	// A dead weak handle matches nothing.
	Matches(l Listener) bool

	// Ref reports the handle's reference kind.
	Ref() RefKind
}

// Strong wraps a listener in a strong handle.
func Strong(l Listener) Handle {
	return &strongHandle{l: l}
}

type strongHandle struct {
	l Listener
}

func (h *strongHandle) Resolve() (Listener, bool) { return h.l, true }
func (h *strongHandle) Ref() RefKind              { return StrongRef }

func (h *strongHandle) Matches(l Listener) bool {
	return sameListener(h.l, l)
}

// Weak wraps a listener in a weak handle. The handle does not keep the
// listener reachable: once the pointed-to value becomes unreachable
// elsewhere and is collected, Resolve reports it gone.
//
// The listener must be passed as a pointer to its concrete type so a weak
// reference to the allocation can be taken.
func Weak[T any, P interface {
	*T
	Listener
}](l P) Handle {
	return &weakHandle[T, P]{ptr: weak.Make((*T)(l))}
}

type weakHandle[T any, P interface {
	*T
	Listener
}] struct {
	ptr  weak.Pointer[T]
	dead atomic.Bool // collection is monotonic; once set, Resolve never retries
}

func (h *weakHandle[T, P]) Resolve() (Listener, bool) {
	if h.dead.Load() {
		return nil, false
	}
	p := h.ptr.Value()
	if p == nil {
		h.dead.Store(true)
		return nil, false
	}
	return P(p), true
}

func (h *weakHandle[T, P]) Ref() RefKind { return WeakRef }

func (h *weakHandle[T, P]) Matches(l Listener) bool {
	got, ok := h.Resolve()
	return ok && sameListener(got, l)
}

// sameListener reports listener identity without panicking on
// non-comparable dynamic types. Pointers compare by address; function
// values compare by code pointer, which cannot distinguish two closures
// over the same literal (see ListenerFunc).
func sameListener(a, b Listener) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	default:
		if !ra.Type().Comparable() {
			return false
		}
		return a == b
	}
}
