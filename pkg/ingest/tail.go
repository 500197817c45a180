package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"promptsearch/pkg/extract"
	"promptsearch/pkg/store"
)

// mtimeEpsilon absorbs filesystem timestamp rounding when comparing the
// stored modification time against the current one.
const mtimeEpsilon = 0.0005

// sessionUpsert is one session_meta sighting, in file order.
type sessionUpsert struct {
	meta       store.SessionMeta
	fallbackTS string
}

// fileOutcome is the result of tailing one file: the new cursor position,
// the documents and session upserts produced, and the state-machine branch
// taken. It is computed without touching the store and applied afterwards,
// so cursor advancement stays in one place.
type fileOutcome struct {
	path       string
	unchanged  bool
	truncated  bool
	size       int64
	mtime      string
	mtimeEpoch float64

	// Last known good position: advanced only past fully parsed records
	// and acceptable blank lines, never past an unparseable tail.
	offset int64
	lineNo int64

	sessionID string
	sessions  []sessionUpsert
	docs      []store.Doc

	linesRead   int
	linesParsed int
}

// tailFile reads the newly appended portion of path, resuming from the
// stored cursor. A decode or JSON-parse failure is treated as evidence of a
// partial in-progress write: processing stops and the cursor stays at the
// last known good position so a later run re-reads the completed line.
func tailFile(path string, cur *store.FileCursor, includeAssistant, includeInternal bool) (*fileOutcome, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	out := &fileOutcome{
		path:       path,
		size:       st.Size(),
		mtime:      store.FormatTime(st.ModTime()),
		mtimeEpoch: float64(st.ModTime().UnixNano()) / 1e9,
	}

	if cur != nil {
		out.sessionID = cur.SessionID
		switch {
		case out.size < cur.LastOffset:
			// Truncated: the caller deletes this file's documents and the
			// whole file is re-ingested from offset zero.
			out.truncated = true
		case out.size == cur.Size && absFloat(out.mtimeEpoch-cur.MtimeEpoch) < mtimeEpsilon:
			out.unchanged = true
			return out, nil
		default:
			out.offset = cur.LastOffset
			out.lineNo = cur.LastLineNo
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if out.offset > 0 {
		if _, err := f.Seek(out.offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek %s: %w", path, err)
		}
	}

	offset := out.offset
	lineNo := out.lineNo
	r := bufio.NewReader(f)

	for {
		chunk, readErr := r.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
		if len(chunk) == 0 {
			break
		}

		out.linesRead++
		offset += int64(len(chunk))
		lineNo++

		line := bytes.TrimSpace(chunk)
		switch {
		case len(line) == 0:
			// Blank lines advance the cursor but produce nothing.
			out.offset, out.lineNo = offset, lineNo
		case !utf8.Valid(line):
			// Likely a write cut mid-rune; hold the cursor here.
			return out, nil
		default:
			rec, ok, decErr := extract.DecodeRecord(line)
			if decErr != nil {
				// Partial write of the final record; a future run re-reads it.
				return out, nil
			}
			if ok {
				out.linesParsed++
				if meta := extract.SessionMeta(rec); meta != nil {
					fallback, _ := extract.ParseTime(rec.Timestamp)
					out.sessions = append(out.sessions, sessionUpsert{meta: *meta, fallbackTS: fallback})
					out.sessionID = meta.ID
				}
				docs := extract.Docs(rec, path, lineNo, out.sessionID, includeAssistant, includeInternal)
				out.docs = append(out.docs, docs...)
			}
			out.offset, out.lineNo = offset, lineNo
		}

		if readErr != nil {
			break
		}
	}

	return out, nil
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
