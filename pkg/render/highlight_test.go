package render

import "testing"

func TestMatchSpans(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needles  []string
		want     []Span
	}{
		{
			name:     "single occurrence",
			haystack: "hello sqlite world",
			needles:  []string{"sqlite"},
			want:     []Span{{Start: 6, End: 12}},
		},
		{
			name:     "case insensitive",
			haystack: "Hello SQLITE world",
			needles:  []string{"sqlite"},
			want:     []Span{{Start: 6, End: 12}},
		},
		{
			name:     "repeated occurrences",
			haystack: "ab ab ab",
			needles:  []string{"ab"},
			want:     []Span{{Start: 0, End: 2}, {Start: 3, End: 5}, {Start: 6, End: 8}},
		},
		{
			name:     "overlapping needles merge",
			haystack: "wal mode on",
			needles:  []string{"wal mode", "mode"},
			want:     []Span{{Start: 0, End: 8}},
		},
		{
			name:     "no match",
			haystack: "nothing here",
			needles:  []string{"absent"},
			want:     nil,
		},
		{
			name:     "multibyte offsets are rune based",
			haystack: "caféteria query",
			needles:  []string{"query"},
			want:     []Span{{Start: 10, End: 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchSpans(tt.haystack, tt.needles)
			if len(got) != len(tt.want) {
				t.Fatalf("MatchSpans = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHighlightMarkdown(t *testing.T) {
	got := HighlightMarkdown("hello sqlite world", "sqlite")
	want := "hello **sqlite** world"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// No matches leaves the text untouched.
	got = HighlightMarkdown("plain text", "absent")
	if got != "plain text" {
		t.Errorf("got %q", got)
	}
}

func TestHighlight_ColorOff(t *testing.T) {
	got := Highlight("hello sqlite world", "sqlite", false)
	if got != "hello sqlite world" {
		t.Errorf("color off must pass text through, got %q", got)
	}
}

func TestHighlightNeedles(t *testing.T) {
	needles := highlightNeedles("wal mode")
	if len(needles) != 3 {
		t.Fatalf("expected [query, wal, mode], got %v", needles)
	}
	if needles[0] != "wal mode" {
		t.Errorf("full query should come first, got %v", needles)
	}

	// Single-word query does not duplicate itself as a token.
	needles = highlightNeedles("sqlite")
	if len(needles) != 1 {
		t.Errorf("expected 1 needle, got %v", needles)
	}

	if highlightNeedles("   ") != nil {
		t.Error("blank query should yield no needles")
	}
}
