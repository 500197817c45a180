// Package store manages the promptsearch SQLite index database: schema,
// settings, tail cursors, sessions, extracted documents, and the optional
// FTS5 full-text index over them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Store wraps the index database. A read-write Store is obtained with Open,
// a read-only one with OpenReadOnly; read-only stores reject Begin.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// Close releases the database connection. Safe to call multiple times.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ensureSchema applies the schema and records the schema version on first use.
func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SchemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(key, value) VALUES (?, ?)`,
		settingSchemaVersion, strconv.Itoa(SchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// Setting returns the value for key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores key=value, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// FTSAvailable reports whether the FTS5 capability probe last succeeded.
func (s *Store) FTSAvailable(ctx context.Context) (bool, error) {
	v, err := s.Setting(ctx, settingFTSAvailable)
	return v == "1", err
}

// FTSIndexReady reports whether the FTS index covers the current document
// set. Refresh clears this flag whenever documents land without a rebuild.
func (s *Store) FTSIndexReady(ctx context.Context) (bool, error) {
	v, err := s.Setting(ctx, settingFTSIndexReady)
	return v == "1", err
}

// TryEnableFTS probes the engine's FTS5 capability by creating the
// external-content index table, and records the result durably in settings.
// A failed probe is not an error: it simply means ranked search stays off.
func (s *Store) TryEnableFTS(ctx context.Context) bool {
	available := "1"
	if _, err := s.db.ExecContext(ctx, ftsDDL); err != nil {
		available = "0"
	}
	_ = s.SetSetting(ctx, settingFTSAvailable, available)
	return available == "1"
}

// RebuildFTS rebuilds the full-text index over the entire docs table and
// marks it ready. The rebuild is a full replace, not incremental.
func (s *Store) RebuildFTS(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO docs_fts(docs_fts) VALUES('rebuild')`,
	); err != nil {
		return fmt.Errorf("rebuild fts index: %w", err)
	}
	if err := s.SetSetting(ctx, settingFTSReindexed, nowUTC()); err != nil {
		return err
	}
	return s.SetSetting(ctx, settingFTSIndexReady, "1")
}

// MarkFTSStale clears the index-ready flag so ranked search stops trusting
// a stale index.
func (s *Store) MarkFTSStale(ctx context.Context) error {
	return s.SetSetting(ctx, settingFTSIndexReady, "0")
}

// ResetAll drops all ingested data (docs, sessions, cursors) and clears the
// FTS flags. Called before the ingest transaction on a full refresh; these
// deletes commit independently of it.
func (s *Store) ResetAll(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM docs`,
		`DELETE FROM sessions`,
		`DELETE FROM files`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err := s.SetSetting(ctx, settingFTSAvailable, "0"); err != nil {
		return err
	}
	return s.SetSetting(ctx, settingFTSIndexReady, "0")
}

// CountDocs returns the number of stored documents.
func (s *Store) CountDocs(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count docs: %w", err)
	}
	return n, nil
}

// CountSessions returns the number of known sessions.
func (s *Store) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// ListSessions returns sessions joined with per-role document counts,
// ordered by last activity, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT
		  s.session_id,
		  COALESCE(s.first_ts, ''),
		  COALESCE(s.last_ts, ''),
		  COALESCE(s.cwd, ''),
		  COUNT(CASE WHEN d.role = 'user' AND d.kind IN (?, ?) THEN 1 END),
		  COUNT(CASE WHEN d.role = 'assistant' AND d.kind IN (?, ?) THEN 1 END),
		  COUNT(CASE WHEN d.kind NOT IN (?, ?) THEN 1 END)
		FROM sessions s
		LEFT JOIN docs d ON d.session_id = s.session_id
		GROUP BY s.session_id, s.first_ts, s.last_ts, s.cwd
		ORDER BY s.last_ts DESC NULLS LAST
		LIMIT ?`,
		KindMessageContent, KindMessageSummary,
		KindMessageContent, KindMessageSummary,
		KindMessageContent, KindMessageSummary,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(
			&ss.SessionID, &ss.FirstTS, &ss.LastTS, &ss.Cwd,
			&ss.UserDocs, &ss.AssistantDocs, &ss.InternalDocs,
		); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// GetSession returns one sessions row, or nil when unknown.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id,
		       COALESCE(first_ts, ''), COALESCE(last_ts, ''),
		       COALESCE(cwd, ''), COALESCE(originator, ''),
		       COALESCE(cli_version, ''), COALESCE(source, ''),
		       COALESCE(model_provider, ''), COALESCE(instructions, '')
		FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(
		&sess.SessionID, &sess.FirstTS, &sess.LastTS,
		&sess.Cwd, &sess.Originator, &sess.CliVersion, &sess.Source,
		&sess.ModelProvider, &sess.Instructions,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// RecordRun persists the outcome of one refresh run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs(
		  run_id, started_at, finished_at,
		  files_scanned, files_updated, lines_read, lines_parsed,
		  docs_inserted, sessions_upserted, fts_available, fts_reindexed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt, r.FinishedAt,
		r.FilesScanned, r.FilesUpdated, r.LinesRead, r.LinesParsed,
		r.DocsInserted, r.SessionsUpserted,
		boolToInt(r.FTSAvailable), boolToInt(r.FTSReindexed),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent refresh runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, started_at, COALESCE(finished_at, ''),
		       files_scanned, files_updated, lines_read, lines_parsed,
		       docs_inserted, sessions_upserted, fts_available, fts_reindexed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var avail, reindexed int64
		if err := rows.Scan(
			&r.RunID, &r.StartedAt, &r.FinishedAt,
			&r.FilesScanned, &r.FilesUpdated, &r.LinesRead, &r.LinesParsed,
			&r.DocsInserted, &r.SessionsUpserted, &avail, &reindexed,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FTSAvailable = avail == 1
		r.FTSReindexed = reindexed == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nowUTC returns the current wall-clock time as a normalized timestamp.
func nowUTC() string {
	return FormatTime(time.Now())
}

// FormatTime renders a timestamp in the canonical stored form: UTC with
// fixed millisecond precision, so lexicographic order matches time order.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
