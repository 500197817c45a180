package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx wraps one ingest transaction. All cursor updates, document inserts and
// session upserts of a refresh run go through a single Tx so the run commits
// or rolls back atomically.
type Tx struct {
	tx *sql.Tx
}

// Begin starts the ingest transaction. Read-only stores refuse.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if s.readOnly {
		return nil, fmt.Errorf("begin: store is read-only")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ingest transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the ingest transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit ingest transaction: %w", err)
	}
	return nil
}

// Rollback aborts the ingest transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// FileCursor returns the tail cursor for path, or nil when the file has not
// been seen before.
func (t *Tx) FileCursor(ctx context.Context, path string) (*FileCursor, error) {
	var fc FileCursor
	var sessionID sql.NullString
	var mtimeEpoch sql.NullFloat64
	err := t.tx.QueryRowContext(ctx, `
		SELECT path, session_id, size, mtime, mtime_epoch,
		       last_offset, last_line_no, last_seen_at
		FROM files WHERE path = ?`, path,
	).Scan(
		&fc.Path, &sessionID, &fc.Size, &fc.Mtime, &mtimeEpoch,
		&fc.LastOffset, &fc.LastLineNo, &fc.LastSeenAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor %s: %w", path, err)
	}
	fc.SessionID = sessionID.String
	fc.MtimeEpoch = mtimeEpoch.Float64
	return &fc, nil
}

// UpsertFileCursor records the post-tail cursor state for a file. A newly
// discovered session id sticks; size, mtime and offsets are replaced.
func (t *Tx) UpsertFileCursor(ctx context.Context, fc FileCursor) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO files(path, session_id, size, mtime, mtime_epoch,
		                  last_offset, last_line_no, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
		  session_id = COALESCE(excluded.session_id, files.session_id),
		  size = excluded.size,
		  mtime = excluded.mtime,
		  mtime_epoch = excluded.mtime_epoch,
		  last_offset = excluded.last_offset,
		  last_line_no = excluded.last_line_no,
		  last_seen_at = excluded.last_seen_at`,
		fc.Path, nullIfEmpty(fc.SessionID), fc.Size, fc.Mtime, fc.MtimeEpoch,
		fc.LastOffset, fc.LastLineNo, fc.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cursor %s: %w", fc.Path, err)
	}
	return nil
}

// TouchFile bumps the last-seen time on an unchanged file.
func (t *Tx) TouchFile(ctx context.Context, path, lastSeenAt string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE files SET last_seen_at = ? WHERE path = ?`, lastSeenAt, path,
	)
	if err != nil {
		return fmt.Errorf("touch file %s: %w", path, err)
	}
	return nil
}

// DeleteFileDocs removes every document extracted from path. Called when the
// file was truncated and its region will be re-ingested.
func (t *Tx) DeleteFileDocs(ctx context.Context, path string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM docs WHERE file_path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete docs for %s: %w", path, err)
	}
	return nil
}

// UpsertSession merges session metadata into the sessions table.
// First/last timestamps expand via MIN/MAX; SQLite's scalar MIN/MAX yield
// NULL when either side is NULL, so both arguments are COALESCE-guarded and
// a timestamp-less sighting leaves the recorded window untouched. Every
// other column keeps its existing value unless it was NULL. The fallback timestamp is used when the
// metadata carries none. A missing session id is a no-op; the return value
// is 1 when a row was touched, for run statistics.
func (t *Tx) UpsertSession(ctx context.Context, meta SessionMeta, fallbackTS string) (int, error) {
	if meta.ID == "" {
		return 0, nil
	}
	ts := meta.Timestamp
	if ts == "" {
		ts = fallbackTS
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sessions(
		  session_id, first_ts, last_ts, cwd, originator,
		  cli_version, source, model_provider, instructions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
		  first_ts = MIN(COALESCE(sessions.first_ts, excluded.first_ts),
		                 COALESCE(excluded.first_ts, sessions.first_ts)),
		  last_ts = MAX(COALESCE(sessions.last_ts, excluded.last_ts),
		                COALESCE(excluded.last_ts, sessions.last_ts)),
		  cwd = COALESCE(sessions.cwd, excluded.cwd),
		  originator = COALESCE(sessions.originator, excluded.originator),
		  cli_version = COALESCE(sessions.cli_version, excluded.cli_version),
		  source = COALESCE(sessions.source, excluded.source),
		  model_provider = COALESCE(sessions.model_provider, excluded.model_provider),
		  instructions = COALESCE(sessions.instructions, excluded.instructions)`,
		meta.ID, nullIfEmpty(ts), nullIfEmpty(ts),
		nullIfEmpty(meta.Cwd), nullIfEmpty(meta.Originator),
		nullIfEmpty(meta.CliVersion), nullIfEmpty(meta.Source),
		nullIfEmpty(meta.ModelProvider), nullIfEmpty(meta.Instructions),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert session %s: %w", meta.ID, err)
	}
	return 1, nil
}

// InsertDocs inserts extracted documents, silently ignoring duplicate doc
// ids. Returns the number of rows actually inserted.
func (t *Tx) InsertDocs(ctx context.Context, docs []Doc) (int, error) {
	inserted := 0
	for _, d := range docs {
		res, err := t.tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO docs(
			  doc_id, session_id, file_path, line_no, event_ts,
			  event_type, inner_type, role, kind, text, text_len
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.DocID, nullIfEmpty(d.SessionID), d.FilePath, d.LineNo,
			nullIfEmpty(d.EventTS), nullIfEmpty(d.EventType),
			nullIfEmpty(d.InnerType), nullIfEmpty(d.Role),
			d.Kind, d.Text, int64(len(d.Text)),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert doc %s: %w", d.DocID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("insert doc %s: %w", d.DocID, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// nullIfEmpty maps "" to SQL NULL so COALESCE-based merge rules see real
// nulls instead of empty strings.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
