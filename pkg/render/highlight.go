package render

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// matchStyle is the high-contrast highlight used for query matches; it reads
// well on most terminals.
var matchStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))

// maxHighlightNeedles caps how many distinct needles get highlighted.
const maxHighlightNeedles = 8

// Span is a half-open [start, end) rune range.
type Span struct {
	Start int
	End   int
}

// highlightNeedles expands a query into highlight needles: the whole query
// first (best for substring-style searching), then individual tokens.
func highlightNeedles(query string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	candidates := []string{q}
	for _, p := range strings.Fields(q) {
		if len(p) < 2 {
			continue
		}
		if strings.EqualFold(p, q) {
			continue
		}
		candidates = append(candidates, p)
	}

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, n := range candidates {
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
		if len(out) >= maxHighlightNeedles {
			break
		}
	}
	return out
}

// MatchSpans returns the merged rune spans of every case-insensitive
// occurrence of the needles in haystack, sorted and with overlaps collapsed.
func MatchSpans(haystack string, needles []string) []Span {
	if haystack == "" {
		return nil
	}
	hay := []rune(strings.ToLower(haystack))

	var spans []Span
	for _, needle := range needles {
		nd := []rune(strings.ToLower(needle))
		if len(nd) == 0 {
			continue
		}
		for start := 0; ; {
			idx := runeIndex(hay[start:], nd)
			if idx < 0 {
				break
			}
			at := start + idx
			spans = append(spans, Span{Start: at, End: at + len(nd)})
			start = at + len(nd)
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sortSpans(spans)
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Highlight styles every query match in text for terminal output. With
// color disabled (or no matches) the text passes through unchanged.
func Highlight(text, query string, color bool) string {
	if !color {
		return text
	}
	spans := MatchSpans(text, highlightNeedles(query))
	if len(spans) == 0 {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(string(runes[prev:s.Start]))
		b.WriteString(matchStyle.Render(string(runes[s.Start:s.End])))
		prev = s.End
	}
	b.WriteString(string(runes[prev:]))
	return b.String()
}

// HighlightMarkdown wraps every query match in text with ** bold markers.
func HighlightMarkdown(text, query string) string {
	spans := MatchSpans(text, highlightNeedles(query))
	if len(spans) == 0 {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(string(runes[prev:s.Start]))
		b.WriteString("**")
		b.WriteString(string(runes[s.Start:s.End]))
		b.WriteString("**")
		prev = s.End
	}
	b.WriteString(string(runes[prev:]))
	return b.String()
}

// runeIndex returns the index of the first occurrence of needle in haystack,
// or -1.
func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		j := 0
		for ; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				break
			}
		}
		if j == len(needle) {
			return i
		}
	}
	return -1
}

// sortSpans sorts by start then end, ascending.
func sortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}
