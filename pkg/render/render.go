// Package render formats search results and session listings for the CLI:
// plain text, aligned tables, JSON, and markdown, with terminal highlighting
// of query matches.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"promptsearch/pkg/search"
	"promptsearch/pkg/store"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// ValidFormat reports whether f names a known output format.
func ValidFormat(f string) bool {
	switch strings.ToLower(f) {
	case FormatTable, FormatText, FormatJSON, FormatMarkdown:
		return true
	}
	return false
}

// ResolveColor decides whether to emit ANSI styling given the configured
// mode and whether stdout is a terminal.
func ResolveColor(mode string, isTTY bool) bool {
	switch strings.ToLower(mode) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTTY
	}
}

// resultJSON is the stable JSON shape for one search hit.
type resultJSON struct {
	DocID     string   `json:"doc_id"`
	SessionID string   `json:"session_id,omitempty"`
	EventTS   string   `json:"event_ts,omitempty"`
	Role      string   `json:"role,omitempty"`
	Kind      string   `json:"kind"`
	FilePath  string   `json:"file_path"`
	LineNo    int64    `json:"line_no"`
	Score     *float64 `json:"score"`
	Snippet   string   `json:"snippet"`
	Text      string   `json:"text,omitempty"`
}

// Results writes search results to w in the requested format. The mode tag
// triggers a degraded-search warning in the human-readable formats.
func Results(w io.Writer, results []search.Result, mode, query, format string, color bool) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		payload := struct {
			Mode    string       `json:"mode"`
			Results []resultJSON `json:"results"`
		}{Mode: mode, Results: make([]resultJSON, 0, len(results))}
		for _, r := range results {
			payload.Results = append(payload.Results, resultJSON{
				DocID: r.DocID, SessionID: r.SessionID, EventTS: r.EventTS,
				Role: r.Role, Kind: r.Kind, FilePath: r.FilePath, LineNo: r.LineNo,
				Score: r.Score, Snippet: r.Snippet, Text: r.Text,
			})
		}
		return writeJSON(w, payload)

	case FormatMarkdown:
		fmt.Fprintln(w, "| ts | score | session | role | snippet |")
		fmt.Fprintln(w, "|---:|---:|---|---|---|")
		for _, r := range results {
			snippet := HighlightMarkdown(collapse(r.Snippet), query)
			snippet = strings.ReplaceAll(snippet, "|", `\|`)
			fmt.Fprintf(w, "| %s | %s | `%s` | %s | %s |\n",
				dash(r.EventTS), scoreString(r.Score), dash(r.SessionID), dash(r.Role), snippet)
		}
		return nil

	case FormatTable:
		if mode != search.ModeFTS {
			fmt.Fprintln(w, style(warnStyle, "(fts unavailable; using substring search)", color))
		}
		fmt.Fprintln(w, style(headerStyle, fmt.Sprintf("%-24s  %8s  %-8s  %-9s  %s", "ts", "score", "session", "role", "snippet"), color))
		for _, r := range results {
			prefix := fmt.Sprintf("%-24s  %8s  %-8s  %-9s  ",
				dash(r.EventTS), scoreString(r.Score), shortID(r.SessionID, 8), dash(r.Role))
			fmt.Fprintf(w, "%s%s\n", style(dimStyle, prefix, color), Highlight(collapse(r.Snippet), query, color))
		}
		return nil

	default: // text
		if mode != search.ModeFTS {
			fmt.Fprintln(w, style(warnStyle, "(fts unavailable; using substring search)", color))
		}
		for _, r := range results {
			prefix := fmt.Sprintf("%s  %s  %s  %s  ",
				dash(r.EventTS), scoreString(r.Score), shortID(r.SessionID, 8), dash(r.Role))
			fmt.Fprintf(w, "%s%s\n", style(dimStyle, prefix, color), Highlight(r.Snippet, query, color))
		}
		return nil
	}
}

// sessionJSON is the stable JSON shape for one session listing row.
type sessionJSON struct {
	SessionID     string `json:"session_id"`
	FirstTS       string `json:"first_ts,omitempty"`
	LastTS        string `json:"last_ts,omitempty"`
	Cwd           string `json:"cwd,omitempty"`
	UserDocs      int64  `json:"user_docs"`
	AssistantDocs int64  `json:"assistant_docs"`
	InternalDocs  int64  `json:"internal_docs"`
}

// Sessions writes a session listing to w in the requested format.
func Sessions(w io.Writer, rows []store.SessionSummary, format string, color bool) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		payload := make([]sessionJSON, 0, len(rows))
		for _, r := range rows {
			payload = append(payload, sessionJSON{
				SessionID: r.SessionID, FirstTS: r.FirstTS, LastTS: r.LastTS, Cwd: r.Cwd,
				UserDocs: r.UserDocs, AssistantDocs: r.AssistantDocs, InternalDocs: r.InternalDocs,
			})
		}
		return writeJSON(w, payload)

	case FormatMarkdown:
		fmt.Fprintln(w, "| last_ts | session_id | user | assistant | internal | cwd |")
		fmt.Fprintln(w, "|---:|---|---:|---:|---:|---|")
		for _, r := range rows {
			cwd := strings.ReplaceAll(dash(r.Cwd), "|", `\|`)
			fmt.Fprintf(w, "| %s | `%s` | %d | %d | %d | %s |\n",
				dash(r.LastTS), dash(r.SessionID), r.UserDocs, r.AssistantDocs, r.InternalDocs, cwd)
		}
		return nil

	case FormatTable:
		fmt.Fprintln(w, style(headerStyle, fmt.Sprintf("%-24s  %-8s  %5s  %9s  %8s  %s", "last_ts", "session", "user", "assistant", "internal", "cwd"), color))
		for _, r := range rows {
			fmt.Fprintf(w, "%-24s  %-8s  %5d  %9d  %8d  %s\n",
				dash(r.LastTS), shortID(r.SessionID, 8), r.UserDocs, r.AssistantDocs, r.InternalDocs, dash(r.Cwd))
		}
		return nil

	default: // text
		for _, r := range rows {
			fmt.Fprintf(w, "%s  %s  user=%d assistant=%d internal=%d  cwd=%s\n",
				dash(r.LastTS), dash(r.SessionID), r.UserDocs, r.AssistantDocs, r.InternalDocs, dash(r.Cwd))
		}
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func style(s lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return s.Render(text)
}

func scoreString(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *score)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortID truncates ids so tables stay readable in narrow terminals.
func shortID(s string, n int) string {
	if s == "" {
		return "-"
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most n runes, appending an ellipsis when
// anything was removed.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
