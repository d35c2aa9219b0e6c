package eventwire

import (
	"sync"

	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
)

// Subscriptions is the per-producer registry mapping event kinds to ordered
// listener handles. Each producer owns exactly one instance; it is never
// shared between producers.
//
// Locking is two-level: a registry mutex guards the kind map and a per-kind
// mutex guards that kind's entry list, so operations on different kinds do
// not serialize against each other. No lock is held while listener callbacks
// run, which makes re-entrant subscribe/unsubscribe from a callback safe.
type Subscriptions struct {
	mu    sync.Mutex
	kinds map[*event.Kind]*kindEntry
}

// kindEntry holds one kind's handles in registration order; slice position
// is the order, preserved until the entry is removed.
type kindEntry struct {
	mu   sync.Mutex
	subs []Handle
}

// NewSubscriptions creates an empty registry.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{kinds: make(map[*event.Kind]*kindEntry)}
}

// withKind runs cb with the kind's entry locked, creating the entry if
// needed. The registry lock is released before cb runs.
func (s *Subscriptions) withKind(kind *event.Kind, cb func(*kindEntry)) {
	s.mu.Lock()
	e, ok := s.kinds[kind]
	if !ok {
		e = &kindEntry{}
		s.kinds[kind] = e
	}
	e.mu.Lock()
	s.mu.Unlock()

	cb(e)
	e.mu.Unlock()
}

// lookup returns the kind's entry without creating it.
func (s *Subscriptions) lookup(kind *event.Kind) (*kindEntry, bool) {
	s.mu.Lock()
	e, ok := s.kinds[kind]
	s.mu.Unlock()
	return e, ok
}

// dropIfEmpty removes the kind's map slot once its entry list is empty.
func (s *Subscriptions) dropIfEmpty(kind *event.Kind) {
	s.mu.Lock()
	if e, ok := s.kinds[kind]; ok {
		e.mu.Lock()
		if len(e.subs) == 0 {
			delete(s.kinds, kind)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()
}

// Add registers a handle for a kind. It returns true when a new entry was
// created. If the same listener is already subscribed to this kind the
// existing entry keeps its registration order and only its handle is
// replaced, so re-subscribing can flip a subscription between strong and
// weak without duplicating delivery.
//
// A handle whose listener is already gone at subscribe time is not added.
func (s *Subscriptions) Add(kind *event.Kind, h Handle) bool {
	l, ok := h.Resolve()
	if !ok {
		return false
	}

	added := false
	s.withKind(kind, func(e *kindEntry) {
		for i := range e.subs {
			if e.subs[i].Matches(l) {
				e.subs[i] = h
				return
			}
		}
		e.subs = append(e.subs, h)
		added = true
	})
	return added
}

// Remove drops the listener's subscription to a kind. It returns whether an
// entry was removed.
func (s *Subscriptions) Remove(kind *event.Kind, l Listener) bool {
	e, ok := s.lookup(kind)
	if !ok {
		return false
	}

	removed := false
	e.mu.Lock()
	for i := range e.subs {
		if e.subs[i].Matches(l) {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			removed = true
			break
		}
	}
	empty := len(e.subs) == 0
	e.mu.Unlock()

	if removed && empty {
		s.dropIfEmpty(kind)
	}
	return removed
}

// RemoveAll clears the registry and returns the number of entries dropped.
func (s *Subscriptions) RemoveAll() int {
	s.mu.Lock()
	kinds := s.kinds
	s.kinds = make(map[*event.Kind]*kindEntry)
	s.mu.Unlock()

	n := 0
	for _, e := range kinds {
		e.mu.Lock()
		n += len(e.subs)
		e.subs = nil
		e.mu.Unlock()
	}
	return n
}

// RemoveAllMatching drops every subscription whose live listener satisfies
// pred, across all kinds, and returns the number removed. Dead weak handles
// are left for delivery-time pruning.
func (s *Subscriptions) RemoveAllMatching(pred func(Listener) bool) int {
	s.mu.Lock()
	entries := make(map[*event.Kind]*kindEntry, len(s.kinds))
	for k, e := range s.kinds {
		entries[k] = e
	}
	s.mu.Unlock()

	n := 0
	for kind, e := range entries {
		e.mu.Lock()
		kept := e.subs[:0]
		for _, h := range e.subs {
			if l, ok := h.Resolve(); ok && pred(l) {
				n++
				continue
			}
			kept = append(kept, h)
		}
		e.subs = kept
		empty := len(e.subs) == 0
		e.mu.Unlock()
		if empty {
			s.dropIfEmpty(kind)
		}
	}
	return n
}

// HasSubscribers reports whether any kind currently has entries. Dead weak
// handles count until they are pruned.
func (s *Subscriptions) HasSubscribers() bool {
	s.mu.Lock()
	entries := make([]*kindEntry, 0, len(s.kinds))
	for _, e := range s.kinds {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		n := len(e.subs)
		e.mu.Unlock()
		if n > 0 {
			return true
		}
	}
	return false
}

// Count returns the number of entries for a kind. Dead weak handles count
// until they are pruned during a delivery.
func (s *Subscriptions) Count(kind *event.Kind) int {
	e, ok := s.lookup(kind)
	if !ok {
		return 0
	}
	e.mu.Lock()
	n := len(e.subs)
	e.mu.Unlock()
	return n
}

// Snapshot returns a point-in-time copy of the kind's handles in
// registration order. Registry mutations after the snapshot is taken do not
// affect a delivery iterating over it.
func (s *Subscriptions) Snapshot(kind *event.Kind) []Handle {
	e, ok := s.lookup(kind)
	if !ok {
		return nil
	}
	e.mu.Lock()
	handles := make([]Handle, len(e.subs))
	copy(handles, e.subs)
	e.mu.Unlock()
	return handles
}

// prune removes the exact handle from a kind's entries. Used by delivery
// when a weak handle resolves to gone; it follows the same locking
// discipline as an explicit unsubscribe.
func (s *Subscriptions) prune(kind *event.Kind, h Handle) {
	e, ok := s.lookup(kind)
	if !ok {
		return
	}
	e.mu.Lock()
	for i := range e.subs {
		if e.subs[i] == h {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			break
		}
	}
	empty := len(e.subs) == 0
	e.mu.Unlock()
	if empty {
		s.dropIfEmpty(kind)
	}
}
