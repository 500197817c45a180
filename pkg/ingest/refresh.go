// Package ingest implements the incremental refresh: discovering session
// log files, tailing each one from its stored cursor, and applying the
// extracted documents and session metadata inside a single transaction.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"promptsearch/pkg/store"
)

// Options configures one refresh run.
type Options struct {
	SessionsDir      string
	Full             bool // drop all ingested data first
	Reindex          bool // rebuild the FTS index after ingest
	IncludeAssistant bool
	IncludeInternal  bool
	Verbose          bool
}

// Stats summarizes one refresh run.
type Stats struct {
	RunID            string
	FilesScanned     int
	FilesUpdated     int
	LinesRead        int
	LinesParsed      int
	DocsInserted     int
	SessionsUpserted int
	FTSAvailable     bool
	FTSReindexed     bool
}

// String renders the stats in the single-line form printed by refresh.
func (s *Stats) String() string {
	return fmt.Sprintf(
		"scanned=%d updated=%d lines_read=%d lines_parsed=%d docs_inserted=%d sessions_upserted=%d fts_available=%d fts_reindexed=%d",
		s.FilesScanned, s.FilesUpdated, s.LinesRead, s.LinesParsed,
		s.DocsInserted, s.SessionsUpserted,
		boolToInt(s.FTSAvailable), boolToInt(s.FTSReindexed),
	)
}

// Refresh runs one incremental ingest pass over every session log under
// opts.SessionsDir. All cursor updates, document inserts and session
// upserts commit in a single transaction; any failure rolls the whole run
// back. A full reset, when requested, is applied before the transaction
// and commits independently.
func Refresh(ctx context.Context, st *store.Store, opts Options) (*Stats, error) {
	stats := &Stats{RunID: uuid.NewString()}
	startedAt := store.FormatTime(time.Now())

	if opts.Full {
		if err := st.ResetAll(ctx); err != nil {
			return nil, err
		}
	}

	stats.FTSAvailable = st.TryEnableFTS(ctx)

	paths, err := discoverLogs(opts.SessionsDir)
	if err != nil {
		return nil, err
	}
	stats.FilesScanned = len(paths)

	tx, err := st.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, path := range paths {
		if err := refreshFile(ctx, tx, path, opts, stats); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// The index rebuild runs outside the ingest transaction; a failure
	// degrades availability instead of failing the run.
	switch {
	case opts.Reindex && stats.DocsInserted > 0 && stats.FTSAvailable:
		if err := st.RebuildFTS(ctx); err != nil {
			log.Printf("ingest: fts rebuild failed, ranked search disabled: %v", err)
			_ = st.MarkFTSStale(ctx)
		} else {
			stats.FTSReindexed = true
		}
	case stats.DocsInserted > 0:
		// New documents arrived without a rebuild: the index is stale.
		_ = st.MarkFTSStale(ctx)
	}

	run := store.Run{
		RunID:            stats.RunID,
		StartedAt:        startedAt,
		FinishedAt:       store.FormatTime(time.Now()),
		FilesScanned:     int64(stats.FilesScanned),
		FilesUpdated:     int64(stats.FilesUpdated),
		LinesRead:        int64(stats.LinesRead),
		LinesParsed:      int64(stats.LinesParsed),
		DocsInserted:     int64(stats.DocsInserted),
		SessionsUpserted: int64(stats.SessionsUpserted),
		FTSAvailable:     stats.FTSAvailable,
		FTSReindexed:     stats.FTSReindexed,
	}
	if err := st.RecordRun(ctx, run); err != nil {
		log.Printf("ingest: record run: %v", err)
	}

	return stats, nil
}

// refreshFile tails one file and applies its outcome to the transaction.
func refreshFile(ctx context.Context, tx *store.Tx, path string, opts Options, stats *Stats) error {
	cur, err := tx.FileCursor(ctx, path)
	if err != nil {
		return err
	}

	out, err := tailFile(path, cur, opts.IncludeAssistant, opts.IncludeInternal)
	if err != nil {
		return err
	}

	now := store.FormatTime(time.Now())

	if out.unchanged {
		return tx.TouchFile(ctx, path, now)
	}

	stats.FilesUpdated++
	stats.LinesRead += out.linesRead
	stats.LinesParsed += out.linesParsed

	if out.truncated {
		if opts.Verbose {
			log.Printf("ingest: %s truncated, re-ingesting", path)
		}
		if err := tx.DeleteFileDocs(ctx, path); err != nil {
			return err
		}
	}

	for _, su := range out.sessions {
		n, err := tx.UpsertSession(ctx, su.meta, su.fallbackTS)
		if err != nil {
			return err
		}
		stats.SessionsUpserted += n
	}

	inserted, err := tx.InsertDocs(ctx, out.docs)
	if err != nil {
		return err
	}
	stats.DocsInserted += inserted

	if opts.Verbose {
		log.Printf("ingest: %s read=%d parsed=%d docs=%d", path, out.linesRead, out.linesParsed, inserted)
	}

	return tx.UpsertFileCursor(ctx, store.FileCursor{
		Path:       path,
		SessionID:  out.sessionID,
		Size:       out.size,
		Mtime:      out.mtime,
		MtimeEpoch: out.mtimeEpoch,
		LastOffset: out.offset,
		LastLineNo: out.lineNo,
		LastSeenAt: now,
	})
}

// discoverLogs returns every .jsonl file under root, sorted by path.
// Session logs nest under YYYY/MM/DD directories, but the walk stays
// generic. A missing root yields no files rather than an error.
func discoverLogs(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat sessions dir: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jsonl") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk sessions dir: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
