package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Read-only opens retry on lock contention rather than failing outright:
// refreshes are short, so a bounded wait almost always succeeds.
const (
	busyRetryStep   = 100 * time.Millisecond
	busyRetryBudget = 4 * time.Second
)

// Open opens (or creates) the index database at path for read-write use and
// enforces production-safe defaults: WAL journal mode and a 5-second busy
// timeout. The schema is applied before returning.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing index database for read-only use. The open
// (and the verifying ping) is retried with bounded backoff while a writer
// holds the lock; ErrBusy is returned only after the retry budget is spent.
// A missing database file is an error: run refresh first.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index database not found: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", path)

	deadline := time.Now().Add(busyRetryBudget)
	var lastErr error
	for {
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		err = db.PingContext(ctx)
		if err == nil {
			return &Store{db: db, readOnly: true}, nil
		}
		_ = db.Close()
		if !isBusy(err) {
			return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %v", ErrBusy, lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(busyRetryStep):
		}
	}
}

// ErrBusy reports that the database stayed locked for the whole retry budget.
var ErrBusy = fmt.Errorf("database is busy (locked)")

// isBusy reports whether err looks like SQLite lock contention.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
