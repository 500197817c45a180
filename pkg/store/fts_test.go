package store

import "testing"

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"single term", "sqlite", `"sqlite"`},
		{"multiple terms", "wal mode", `"wal" OR "mode"`},
		{"operator words quoted", "this AND that", `"this" OR "AND" OR "that"`},
		{"embedded quotes stripped", `say "hello"`, `"say" OR "hello"`},
		{"only quotes dropped", `a ""`, `"a"`},
		{"empty", "", ""},
		{"whitespace only", "   ", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFTSQuery(tt.query); got != tt.want {
				t.Errorf("SanitizeFTSQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}
