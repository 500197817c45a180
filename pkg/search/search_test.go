package search

import (
	"context"
	"path/filepath"
	"testing"

	"promptsearch/pkg/store"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insertDocs(t *testing.T, st *store.Store, docs []store.Doc) {
	t.Helper()
	ctx := context.Background()
	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.InsertDocs(ctx, docs); err != nil {
		t.Fatalf("insert docs: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestRun_SubstringFallbackWithoutFTS(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	insertDocs(t, st, []store.Doc{
		{DocID: "1", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user",
			EventTS: "2025-03-01T10:00:00.000Z", Text: "question about sqlite wal mode"},
	})

	// FTS was never probed, so availability is off and substring serves.
	results, mode, err := Run(ctx, st, "sqlite", Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if mode != ModeSubstring {
		t.Errorf("mode = %s, want substring", mode)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].MatchPos == nil || results[0].Score != nil {
		t.Errorf("substring result should carry match_pos only: %+v", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("result missing snippet")
	}
	if results[0].Text != "" {
		t.Error("full text should be omitted by default")
	}
}

func TestRun_RankedWhenIndexReady(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if !st.TryEnableFTS(ctx) {
		t.Skip("fts5 not compiled into the driver")
	}
	insertDocs(t, st, []store.Doc{
		{DocID: "1", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user",
			EventTS: "2025-03-01T10:00:00.000Z", Text: "configure sqlite wal mode for writers"},
		{DocID: "2", FilePath: "/a", LineNo: 2, Kind: store.KindMessageContent, Role: "user",
			EventTS: "2025-03-01T11:00:00.000Z", Text: "completely unrelated text"},
	})
	if err := st.RebuildFTS(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	results, mode, err := Run(ctx, st, "sqlite wal", Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if mode != ModeFTS {
		t.Fatalf("mode = %s, want fts", mode)
	}
	if len(results) != 1 || results[0].DocID != "1" {
		t.Errorf("wrong ranked results: %+v", results)
	}
	if results[0].Score == nil {
		t.Error("ranked result missing score")
	}
}

func TestRun_FallbackOnEmptyRankedResult(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if !st.TryEnableFTS(ctx) {
		t.Skip("fts5 not compiled into the driver")
	}
	// FTS tokenizes on word boundaries, so a mid-word fragment never matches
	// the ranked index but does match as a substring.
	insertDocs(t, st, []store.Doc{
		{DocID: "1", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user",
			Text: "the promptsearch index"},
	})
	if err := st.RebuildFTS(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	results, mode, err := Run(ctx, st, "romptsearc", Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if mode != ModeSubstring {
		t.Errorf("mode = %s, want substring fallback", mode)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 fallback result, got %d", len(results))
	}
}

func TestRun_StaleIndexUsesSubstring(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if !st.TryEnableFTS(ctx) {
		t.Skip("fts5 not compiled into the driver")
	}
	insertDocs(t, st, []store.Doc{
		{DocID: "1", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user",
			Text: "sqlite question"},
	})
	// No rebuild: the ready flag stays off, so ranked search is not trusted.

	_, mode, err := Run(ctx, st, "sqlite", Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if mode != ModeSubstring {
		t.Errorf("mode = %s, want substring for stale index", mode)
	}
}

func TestRun_EmptyQuery(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	results, mode, err := Run(ctx, st, "   ", Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for empty query, got %d", len(results))
	}
	if mode != ModeSubstring {
		t.Errorf("mode should reflect unavailable index, got %s", mode)
	}
}

func TestRun_RoleAndKindFilters(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	insertDocs(t, st, []store.Doc{
		{DocID: "u", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user", Text: "shared term"},
		{DocID: "a", FilePath: "/a", LineNo: 2, Kind: store.KindMessageContent, Role: "assistant", Text: "shared term"},
		{DocID: "r", FilePath: "/a", LineNo: 3, Kind: store.KindAgentReasoning, Text: "shared term"},
	})

	// Default surface: user prompts only.
	results, _, err := Run(ctx, st, "shared", Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 || results[0].DocID != "u" {
		t.Errorf("default filter wrong: %+v", results)
	}

	// Widening both dimensions reaches all three.
	results, _, err = Run(ctx, st, "shared", Options{IncludeAssistant: true, IncludeInternal: true})
	if err != nil {
		t.Fatalf("run widened: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("widened filter found %d docs, want 3", len(results))
	}
}

func TestRun_ContextLinesAndFullText(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	text := "aaa\nbbb match here\nccc"
	insertDocs(t, st, []store.Doc{
		{DocID: "1", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user", Text: text},
	})

	results, _, err := Run(ctx, st, "match", Options{ContextLines: 1, IncludeText: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Snippet != "aaa\nbbb match here\nccc" {
		t.Errorf("context snippet wrong: %q", results[0].Snippet)
	}
	if results[0].Text != text {
		t.Errorf("full text not carried: %q", results[0].Text)
	}
}

func TestRun_SortRecent(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	insertDocs(t, st, []store.Doc{
		{DocID: "old", FilePath: "/a", LineNo: 1, Kind: store.KindMessageContent, Role: "user",
			EventTS: "2025-03-01T09:00:00.000Z", Text: "needle early in text"},
		{DocID: "new", FilePath: "/a", LineNo: 2, Kind: store.KindMessageContent, Role: "user",
			EventTS: "2025-03-01T11:00:00.000Z", Text: "later position of the needle"},
	})

	// Relevance: earliest match position first.
	results, _, err := Run(ctx, st, "needle", Options{Sort: SortRelevance})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results[0].DocID != "old" {
		t.Errorf("relevance order wrong: %s first", results[0].DocID)
	}

	// Recent: event time first.
	results, _, err = Run(ctx, st, "needle", Options{Sort: SortRecent})
	if err != nil {
		t.Fatalf("run recent: %v", err)
	}
	if results[0].DocID != "new" {
		t.Errorf("recent order wrong: %s first", results[0].DocID)
	}
}
