package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Filters is an explicit predicate set composed by the retrieval engine,
// one Add per filter dimension. It replaces ad hoc string interpolation of
// WHERE fragments.
type Filters struct {
	conds []string
	args  []any
}

// Add appends one predicate and its bind arguments.
func (f *Filters) Add(cond string, args ...any) {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, args...)
}

// clause renders the predicates for embedding after WHERE/AND.
func (f *Filters) clause() string {
	if len(f.conds) == 0 {
		return "1=1"
	}
	return strings.Join(f.conds, " AND ")
}

// SearchRanked runs a BM25-ranked FTS5 query. The query string must already
// be sanitized for FTS5 (see SanitizeFTSQuery). Score is -bm25, so higher is
// better. With recentFirst, event time becomes the primary ordering key and
// score the tie-break.
func (s *Store) SearchRanked(ctx context.Context, match string, f Filters, recentFirst bool, limit int) ([]DocHit, error) {
	order := "score DESC, d.event_ts DESC NULLS LAST"
	if recentFirst {
		order = "d.event_ts DESC NULLS LAST, score DESC"
	}

	q := fmt.Sprintf(`
		SELECT d.doc_id, COALESCE(d.session_id, ''), COALESCE(d.event_ts, ''),
		       COALESCE(d.role, ''), d.kind, d.file_path, d.line_no,
		       -bm25(docs_fts) AS score, d.text
		FROM docs_fts
		JOIN docs d ON d.rowid = docs_fts.rowid
		WHERE docs_fts MATCH ?
		  AND %s
		ORDER BY %s
		LIMIT ?`, f.clause(), order)

	args := append([]any{match}, f.args...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ranked search: %w", err)
	}
	defer rows.Close()

	var hits []DocHit
	for rows.Next() {
		var h DocHit
		var score float64
		if err := rows.Scan(
			&h.DocID, &h.SessionID, &h.EventTS, &h.Role, &h.Kind,
			&h.FilePath, &h.LineNo, &score, &h.Text,
		); err != nil {
			return nil, fmt.Errorf("scan ranked hit: %w", err)
		}
		h.Score = &score
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked hits: %w", err)
	}
	return hits, nil
}

// SearchSubstring runs the case-insensitive containment fallback. The match
// position of the first occurrence (1-based, as INSTR reports it) is the
// primary ordering key unless recentFirst flips it to a tie-break.
func (s *Store) SearchSubstring(ctx context.Context, query string, f Filters, recentFirst bool, limit int) ([]DocHit, error) {
	order := "match_pos ASC, event_ts DESC NULLS LAST"
	if recentFirst {
		order = "event_ts DESC NULLS LAST, match_pos ASC"
	}

	q := fmt.Sprintf(`
		SELECT doc_id, COALESCE(session_id, ''), COALESCE(event_ts, ''),
		       COALESCE(role, ''), kind, file_path, line_no,
		       INSTR(LOWER(text), LOWER(?)) AS match_pos, text
		FROM docs
		WHERE INSTR(LOWER(text), LOWER(?)) > 0
		  AND %s
		ORDER BY %s
		LIMIT ?`, f.clause(), order)

	args := append([]any{query, query}, f.args...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()

	var hits []DocHit
	for rows.Next() {
		var h DocHit
		var pos sql.NullInt64
		if err := rows.Scan(
			&h.DocID, &h.SessionID, &h.EventTS, &h.Role, &h.Kind,
			&h.FilePath, &h.LineNo, &pos, &h.Text,
		); err != nil {
			return nil, fmt.Errorf("scan substring hit: %w", err)
		}
		if pos.Valid {
			p := pos.Int64
			h.MatchPos = &p
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate substring hits: %w", err)
	}
	return hits, nil
}
