package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLite persists failed deliveries to SQLite.
// It is suitable for single-process production use.
type SQLite struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLite creates a SQLite-backed journal.
// The path should be a file path (e.g., "./deliveries.db") or ":memory:" for testing.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS failed_deliveries (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			payload BLOB,
			listener TEXT NOT NULL,
			error TEXT NOT NULL,
			failed_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_failed_deliveries_kind
		ON failed_deliveries(kind)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Record implements Journal.
func (j *SQLite) Record(ctx context.Context, fd *FailedDelivery) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO failed_deliveries (id, kind, payload, listener, error, failed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, fd.ID, fd.Kind, fd.Payload, fd.Listener, fd.Error,
		fd.FailedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record failed delivery: %w", err)
	}
	return nil
}

// List implements Journal.
func (j *SQLite) List(ctx context.Context, limit int) ([]*FailedDelivery, error) {
	return j.query(ctx, `
		SELECT id, kind, payload, listener, error, failed_at
		FROM failed_deliveries
		ORDER BY failed_at
		LIMIT ?
	`, sqlLimit(limit))
}

// ListByKind implements Journal.
func (j *SQLite) ListByKind(ctx context.Context, kind string, limit int) ([]*FailedDelivery, error) {
	return j.query(ctx, `
		SELECT id, kind, payload, listener, error, failed_at
		FROM failed_deliveries
		WHERE kind = ?
		ORDER BY failed_at
		LIMIT ?
	`, kind, sqlLimit(limit))
}

// sqlLimit maps "no limit" (<= 0) to SQLite's unlimited LIMIT.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (j *SQLite) query(ctx context.Context, q string, args ...any) ([]*FailedDelivery, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrClosed
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list failed deliveries: %w", err)
	}
	defer rows.Close()

	var out []*FailedDelivery
	for rows.Next() {
		var fd FailedDelivery
		var failedAt string
		if err := rows.Scan(&fd.ID, &fd.Kind, &fd.Payload, &fd.Listener, &fd.Error, &failedAt); err != nil {
			return nil, fmt.Errorf("scan failed delivery: %w", err)
		}
		fd.FailedAt, _ = time.Parse(time.RFC3339Nano, failedAt)
		out = append(out, &fd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed deliveries: %w", err)
	}
	return out, nil
}

// Acknowledge implements Journal.
func (j *SQLite) Acknowledge(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM failed_deliveries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("acknowledge failed delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acknowledge failed delivery: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count implements Journal.
func (j *SQLite) Count(ctx context.Context) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return 0, ErrClosed
	}
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_deliveries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed deliveries: %w", err)
	}
	return n, nil
}

// CountByKind implements Journal.
func (j *SQLite) CountByKind(ctx context.Context) (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrClosed
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM failed_deliveries GROUP BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("count failed deliveries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// Close implements Journal.
func (j *SQLite) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
