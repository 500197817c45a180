package extract

import (
	"strings"
	"time"

	"promptsearch/pkg/store"
)

// timeLayouts are tried in order. Session logs use RFC3339 with fractional
// seconds ("2025-11-05T02:19:10.108Z"); naive layouts cover older files.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTime parses a log timestamp and renders it in the canonical stored
// form (UTC, fixed millisecond precision). Returns ("", false) on empty or
// unparseable input; an absent timestamp is not an error.
func ParseTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return store.FormatTime(t), true
		}
	}
	return "", false
}
