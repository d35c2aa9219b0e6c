package remote

import "sync"

// bindingTable is the registry's thread-safe name → binding map.
// It uses sync.RWMutex for read-heavy lookup traffic.
type bindingTable struct {
	mu      sync.RWMutex
	entries map[string]Binding
}

func newBindingTable() *bindingTable {
	return &bindingTable{entries: make(map[string]Binding)}
}

// bind adds a binding, failing when the name is taken.
func (t *bindingTable) bind(name string, b Binding) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; ok {
		return ErrAlreadyBound
	}
	t.entries[name] = b
	return nil
}

// rebind adds or replaces a binding.
func (t *bindingTable) rebind(name string, b Binding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[name] = b
}

// unbind removes a binding, failing when the name is absent.
func (t *bindingTable) unbind(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; !ok {
		return ErrNotBound
	}
	delete(t.entries, name)
	return nil
}

// lookup returns the binding for a name.
func (t *bindingTable) lookup(name string) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.entries[name]
	return b, ok
}

// names returns all bound names. The order is not guaranteed.
func (t *bindingTable) names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for name := range t.entries {
		out = append(out, name)
	}
	return out
}
