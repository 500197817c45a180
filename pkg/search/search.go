// Package search implements keyword retrieval over the document store. It
// prefers a BM25-ranked FTS5 query and degrades to a case-insensitive
// substring scan whenever the index is unavailable, stale, broken, or simply
// matches nothing; callers always get a best-effort result set plus the mode
// that produced it.
package search

import (
	"context"
	"log"
	"strings"

	"promptsearch/pkg/store"
)

// Sort selects the primary ordering of results.
type Sort string

const (
	// SortRelevance orders by match quality: score for ranked search,
	// match position for substring search; event time breaks ties.
	SortRelevance Sort = "relevance"
	// SortRecent orders by event time, with match quality as tie-break.
	SortRecent Sort = "recent"
)

// Modes reported alongside results so callers can warn about degraded search.
const (
	ModeFTS       = "fts"
	ModeSubstring = "substring"
)

// Options configures one search call.
type Options struct {
	Limit            int
	IncludeAssistant bool
	IncludeInternal  bool
	Sort             Sort
	IncludeText      bool // carry the full document text on each result
	ContextLines     int  // when > 0, snippet becomes a line-context window
}

// Result is one search hit. Score is set in ranked mode, MatchPos in
// substring mode; the other is nil.
type Result struct {
	DocID     string
	SessionID string
	EventTS   string
	Role      string
	Kind      string
	FilePath  string
	LineNo    int64
	Score     *float64
	MatchPos  *int64
	Snippet   string
	Text      string
}

// Run searches for query and returns (results, mode). An empty or
// whitespace-only query returns no results immediately, with the mode
// reflecting current index availability.
func Run(ctx context.Context, st *store.Store, query string, opts Options) ([]Result, string, error) {
	q := strings.TrimSpace(query)

	ftsAvailable, err := st.FTSAvailable(ctx)
	if err != nil {
		return nil, ModeSubstring, err
	}

	if q == "" {
		mode := ModeSubstring
		if ftsAvailable {
			mode = ModeFTS
		}
		return nil, mode, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	filters := buildFilters(opts)
	recentFirst := opts.Sort == SortRecent

	if ftsAvailable {
		ready, err := st.FTSIndexReady(ctx)
		if err != nil {
			return nil, ModeSubstring, err
		}
		if ready {
			hits, err := st.SearchRanked(ctx, store.SanitizeFTSQuery(q), filters, recentFirst, limit)
			switch {
			case err != nil:
				// A broken index and an empty-but-valid result both fall back,
				// but are logged distinguishably.
				log.Printf("search: ranked query failed, falling back to substring: %v", err)
			case len(hits) == 0:
				log.Printf("search: ranked query matched nothing for %q, falling back to substring", q)
			default:
				return buildResults(hits, q, opts), ModeFTS, nil
			}
		}
	}

	hits, err := st.SearchSubstring(ctx, q, filters, recentFirst, limit)
	if err != nil {
		return nil, ModeSubstring, err
	}
	return buildResults(hits, q, opts), ModeSubstring, nil
}

// buildFilters composes the role and kind predicates. The default surface is
// user prompts only; the include flags widen each dimension.
func buildFilters(opts Options) store.Filters {
	var f store.Filters
	if opts.IncludeAssistant {
		f.Add(`(role = 'user' OR role = 'assistant' OR role IS NULL)`)
	} else {
		f.Add(`role = 'user'`)
	}
	if !opts.IncludeInternal {
		f.Add(`kind IN (?, ?)`, store.KindMessageContent, store.KindMessageSummary)
	}
	return f
}

func buildResults(hits []store.DocHit, query string, opts Options) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		snippet := MakeSnippet(h.Text, query, 0)
		if opts.ContextLines > 0 {
			snippet = ExtractContextLines(h.Text, query, opts.ContextLines)
		}
		r := Result{
			DocID:     h.DocID,
			SessionID: h.SessionID,
			EventTS:   h.EventTS,
			Role:      h.Role,
			Kind:      h.Kind,
			FilePath:  h.FilePath,
			LineNo:    h.LineNo,
			Score:     h.Score,
			MatchPos:  h.MatchPos,
			Snippet:   snippet,
		}
		if opts.IncludeText {
			r.Text = h.Text
		}
		results = append(results, r)
	}
	return results
}
