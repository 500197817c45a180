package search

import (
	"strings"
	"unicode/utf8"
)

// DefaultSnippetLen bounds snippet length in runes.
const DefaultSnippetLen = 180

const ellipsis = "…"

// MakeSnippet returns a bounded excerpt of text centered on the earliest
// query match. Internal whitespace collapses to single spaces first; text
// that fits within maxLen is returned whole. Ranked search can match on
// token forms absent from the literal text, in which case the snippet
// degrades to a plain truncation.
func MakeSnippet(text, query string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSnippetLen
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return string(runes[:maxLen-1]) + ellipsis
	}

	idx := earliestMatch(collapsed, Needles(q))
	if idx < 0 {
		return string(runes[:maxLen-1]) + ellipsis
	}

	// Roughly one third of the window sits before the match.
	start := idx - maxLen/3
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(runes) {
		end = len(runes)
	}
	s := string(runes[start:end])
	if start > 0 {
		s = ellipsis + s
	}
	if end < len(runes) {
		s += ellipsis
	}
	return s
}

// ExtractContextLines returns a window of n lines around the line holding
// the earliest query match. Single-line text or n <= 0 degrades to snippet
// logic; when no needle matches any line, the first 2n+1 lines are returned.
func ExtractContextLines(text, query string, n int) string {
	if n <= 0 {
		return MakeSnippet(text, query, 0)
	}
	lines := splitLines(text)
	if len(lines) <= 1 {
		return MakeSnippet(text, query, 0)
	}

	needles := Needles(query)
	if len(needles) == 0 {
		return strings.Join(lines[:min(len(lines), 2*n+1)], "\n")
	}

	bestLine := -1
	bestPos := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, needle := range needles {
			pos := strings.Index(lower, strings.ToLower(needle))
			if pos < 0 {
				continue
			}
			if bestPos < 0 || pos < bestPos {
				bestPos = pos
				bestLine = i
			}
		}
	}

	if bestLine < 0 {
		return strings.Join(lines[:min(len(lines), 2*n+1)], "\n")
	}

	start := max(0, bestLine-n)
	end := min(len(lines), bestLine+n+1)
	return strings.Join(lines[start:end], "\n")
}

// Needles expands a query into the substrings worth locating: the full
// trimmed query first, then each whitespace token of length >= 2,
// deduplicated case-insensitively in order.
func Needles(query string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	candidates := append([]string{q}, strings.Fields(q)...)

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, n := range candidates {
		if n != q && utf8.RuneCountInString(n) < 2 {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

// earliestMatch returns the rune index of the earliest case-insensitive
// occurrence of any needle in text, or -1.
func earliestMatch(text string, needles []string) int {
	lower := strings.ToLower(text)
	best := -1
	for _, needle := range needles {
		j := strings.Index(lower, strings.ToLower(needle))
		if j >= 0 && (best < 0 || j < best) {
			best = j
		}
	}
	if best < 0 {
		return -1
	}
	return utf8.RuneCountInString(lower[:best])
}

// splitLines splits on newlines, tolerating CRLF and ignoring a trailing
// newline.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
