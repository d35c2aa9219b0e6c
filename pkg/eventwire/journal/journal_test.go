package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventwire/pkg/eventwire/journal"
)

func record(kind string, failedAt time.Time) *journal.FailedDelivery {
	fd := journal.NewFailedDelivery(kind, "*main.listener", []byte(`[2.5]`), errors.New("down"))
	fd.FailedAt = failedAt
	return fd
}

// journalContract exercises the Journal interface against any implementation.
func journalContract(t *testing.T, j journal.Journal) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	first := record("pump.pressure", base)
	second := record("pump.pressure", base.Add(time.Minute))
	other := record("valve.open", base.Add(2*time.Minute))
	require.NoError(t, j.Record(ctx, first))
	require.NoError(t, j.Record(ctx, second))
	require.NoError(t, j.Record(ctx, other))

	// List is oldest first.
	all, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, other.ID, all[2].ID)

	limited, err := j.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	byKind, err := j.ListByKind(ctx, "pump.pressure", 0)
	require.NoError(t, err)
	require.Len(t, byKind, 2)
	assert.Equal(t, first.ID, byKind[0].ID)
	assert.Equal(t, []byte(`[2.5]`), byKind[0].Payload)
	assert.Equal(t, "down", byKind[0].Error)

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counts, err := j.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pump.pressure": 2, "valve.open": 1}, counts)

	// Acknowledge removes exactly one record.
	require.NoError(t, j.Acknowledge(ctx, first.ID))
	assert.ErrorIs(t, j.Acknowledge(ctx, first.ID), journal.ErrNotFound)
	n, err = j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Closed journals refuse everything.
	require.NoError(t, j.Close())
	assert.ErrorIs(t, j.Record(ctx, record("x", base)), journal.ErrClosed)
	_, err = j.List(ctx, 0)
	assert.ErrorIs(t, err, journal.ErrClosed)
}

func TestInMemory(t *testing.T) {
	journalContract(t, journal.NewInMemory(0))
}

func TestSQLite(t *testing.T) {
	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	journalContract(t, j)
}

func TestInMemoryBounded(t *testing.T) {
	ctx := context.Background()
	j := journal.NewInMemory(2)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	oldest := record("k", base)
	require.NoError(t, j.Record(ctx, oldest))
	require.NoError(t, j.Record(ctx, record("k", base.Add(time.Minute))))
	require.NoError(t, j.Record(ctx, record("k", base.Add(2*time.Minute))))

	// The oldest record was dropped to stay within bounds.
	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, j.Acknowledge(ctx, oldest.ID), journal.ErrNotFound)
}

func TestSQLitePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j1, err := journal.NewSQLite(path)
	require.NoError(t, err)
	fd := record("pump.pressure", time.Now().UTC())
	require.NoError(t, j1.Record(ctx, fd))
	require.NoError(t, j1.Close())

	// Records survive a reopen.
	j2, err := journal.NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	all, err := j2.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, fd.ID, all[0].ID)
	assert.Equal(t, "pump.pressure", all[0].Kind)
}

func TestSQLiteInvalidPath(t *testing.T) {
	_, err := journal.NewSQLite("/nonexistent/path/journal.db")
	assert.Error(t, err)
}
