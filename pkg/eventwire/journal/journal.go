// Package journal records listener delivery failures for later inspection.
//
// A producer configured with a journal writes one FailedDelivery record per
// failed notification. The journal is an audit trail, not a retry queue:
// delivery stays synchronous and best-effort, and nothing is ever redelivered
// from here automatically. Acknowledge removes records an operator has dealt
// with.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record ID is not in the journal.
var ErrNotFound = errors.New("journal: record not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal: closed")

// FailedDelivery describes one listener's failed notification.
type FailedDelivery struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Kind is the event kind's name.
	Kind string `json:"kind"`

	// Payload is the event payload serialized as JSON, best effort.
	Payload []byte `json:"payload,omitempty"`

	// Listener describes the failing listener (its Go type, or the remote
	// listener's registered name).
	Listener string `json:"listener"`

	// Error is the delivery error message.
	Error string `json:"error"`

	// FailedAt is when the delivery failed.
	FailedAt time.Time `json:"failed_at"`
}

// NewFailedDelivery creates a record with a fresh ID and timestamp.
func NewFailedDelivery(kind, listener string, payload []byte, err error) *FailedDelivery {
	return &FailedDelivery{
		ID:       uuid.New().String(),
		Kind:     kind,
		Payload:  payload,
		Listener: listener,
		Error:    err.Error(),
		FailedAt: time.Now().UTC(),
	}
}

// Journal stores failed deliveries.
type Journal interface {
	// Record appends a failed delivery.
	Record(ctx context.Context, fd *FailedDelivery) error

	// List returns up to limit records, oldest first.
	List(ctx context.Context, limit int) ([]*FailedDelivery, error)

	// ListByKind returns up to limit records for one event kind, oldest first.
	ListByKind(ctx context.Context, kind string, limit int) ([]*FailedDelivery, error)

	// Acknowledge removes a record.
	Acknowledge(ctx context.Context, id string) error

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// CountByKind returns record counts grouped by event kind.
	CountByKind(ctx context.Context) (map[string]int, error)

	// Close releases resources.
	Close() error
}
