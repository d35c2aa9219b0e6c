package journal

import (
	"context"
	"sort"
	"sync"
)

// InMemory is an in-memory Journal.
// Suitable for testing and single-instance deployments.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*FailedDelivery
	maxSize int
	closed  bool
}

// DefaultMaxSize bounds the in-memory journal.
const DefaultMaxSize = 10000

// NewInMemory creates an in-memory journal. maxSize <= 0 uses
// DefaultMaxSize.
func NewInMemory(maxSize int) *InMemory {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &InMemory{
		records: make(map[string]*FailedDelivery),
		maxSize: maxSize,
	}
}

// Record appends a failed delivery.
func (j *InMemory) Record(ctx context.Context, fd *FailedDelivery) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}
	if len(j.records) >= j.maxSize {
		// Drop the oldest record to stay bounded.
		oldestID := ""
		for id, r := range j.records {
			if oldestID == "" || r.FailedAt.Before(j.records[oldestID].FailedAt) {
				oldestID = id
			}
		}
		delete(j.records, oldestID)
	}
	j.records[fd.ID] = fd
	return nil
}

// List returns up to limit records, oldest first.
func (j *InMemory) List(ctx context.Context, limit int) ([]*FailedDelivery, error) {
	return j.list(limit, func(*FailedDelivery) bool { return true })
}

// ListByKind returns up to limit records for one event kind, oldest first.
func (j *InMemory) ListByKind(ctx context.Context, kind string, limit int) ([]*FailedDelivery, error) {
	return j.list(limit, func(fd *FailedDelivery) bool { return fd.Kind == kind })
}

func (j *InMemory) list(limit int, keep func(*FailedDelivery) bool) ([]*FailedDelivery, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrClosed
	}
	out := make([]*FailedDelivery, 0, limit)
	for _, r := range j.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].FailedAt.Before(out[b].FailedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Acknowledge removes a record.
func (j *InMemory) Acknowledge(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}
	if _, ok := j.records[id]; !ok {
		return ErrNotFound
	}
	delete(j.records, id)
	return nil
}

// Count returns the number of records.
func (j *InMemory) Count(ctx context.Context) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return 0, ErrClosed
	}
	return len(j.records), nil
}

// CountByKind returns record counts grouped by event kind.
func (j *InMemory) CountByKind(ctx context.Context) (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrClosed
	}
	counts := make(map[string]int)
	for _, r := range j.records {
		counts[r.Kind]++
	}
	return counts, nil
}

// Close marks the journal closed.
func (j *InMemory) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}
