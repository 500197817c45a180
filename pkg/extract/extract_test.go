package extract

import (
	"strings"
	"testing"

	"promptsearch/pkg/store"
)

func decode(t *testing.T, line string) *Record {
	t.Helper()
	rec, ok, err := DecodeRecord([]byte(line))
	if err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if !ok {
		t.Fatalf("decode %q: skipped", line)
	}
	return rec
}

func TestDecodeRecord(t *testing.T) {
	t.Run("malformed json is an error", func(t *testing.T) {
		_, _, err := DecodeRecord([]byte(`{"type": "resp`))
		if err == nil {
			t.Fatal("expected error for truncated json")
		}
	})

	t.Run("non-object json is skipped", func(t *testing.T) {
		rec, ok, err := DecodeRecord([]byte(`[1, 2, 3]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || rec != nil {
			t.Errorf("expected (nil, false) for array, got (%v, %v)", rec, ok)
		}
	})

	t.Run("object fields decoded", func(t *testing.T) {
		rec := decode(t, `{"type":"event_msg","timestamp":"2025-03-01T10:00:00Z","payload":{"type":"agent_reasoning"}}`)
		if rec.Type != "event_msg" {
			t.Errorf("type = %q", rec.Type)
		}
		if rec.Timestamp != "2025-03-01T10:00:00Z" {
			t.Errorf("timestamp = %q", rec.Timestamp)
		}
	})
}

func TestDocs_UserMessage(t *testing.T) {
	rec := decode(t, `{"type":"response_item","timestamp":"2025-03-01T10:00:00Z",
		"payload":{"type":"message","role":"user","content":[
			{"type":"input_text","text":"first segment"},
			{"type":"input_text","text":"   "},
			{"type":"input_text","text":"second segment"}]}}`)

	docs := Docs(rec, "/logs/a.jsonl", 3, "s1", false, false)
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs (blank segment dropped), got %d", len(docs))
	}
	if docs[0].DocID != "/logs/a.jsonl:3:1" || docs[1].DocID != "/logs/a.jsonl:3:2" {
		t.Errorf("segment ids wrong: %s, %s", docs[0].DocID, docs[1].DocID)
	}
	if docs[0].Role != "user" || docs[0].Kind != store.KindMessageContent {
		t.Errorf("role/kind wrong: %s/%s", docs[0].Role, docs[0].Kind)
	}
	if docs[0].SessionID != "s1" {
		t.Errorf("session hint not applied: %q", docs[0].SessionID)
	}
	if docs[0].EventTS != "2025-03-01T10:00:00.000Z" {
		t.Errorf("timestamp not normalized: %q", docs[0].EventTS)
	}
}

func TestDocs_SummarySegments(t *testing.T) {
	// Encrypted content is absent but a plaintext summary survives.
	rec := decode(t, `{"type":"response_item","payload":{"type":"message","role":"user",
		"content":[{"type":"input_text","text":"visible"}],
		"summary":[{"type":"summary_text","text":"the gist"}]}}`)

	docs := Docs(rec, "/a", 1, "", false, false)
	if len(docs) != 2 {
		t.Fatalf("expected content + summary docs, got %d", len(docs))
	}
	if docs[0].Kind != store.KindMessageContent || docs[1].Kind != store.KindMessageSummary {
		t.Errorf("kinds wrong: %s, %s", docs[0].Kind, docs[1].Kind)
	}
	// Segment index continues across the two lists.
	if docs[1].DocID != "/a:1:2" {
		t.Errorf("summary doc id should continue the segment index, got %s", docs[1].DocID)
	}
}

func TestDocs_AssistantFlag(t *testing.T) {
	line := `{"type":"response_item","payload":{"type":"message","role":"assistant",
		"content":[{"type":"output_text","text":"the answer"}]}}`

	rec := decode(t, line)
	if docs := Docs(rec, "/a", 1, "", false, false); len(docs) != 0 {
		t.Errorf("assistant docs should be excluded by default, got %d", len(docs))
	}
	if docs := Docs(rec, "/a", 1, "", true, false); len(docs) != 1 {
		t.Errorf("expected assistant doc with flag, got %d", len(docs))
	}
}

func TestDocs_EventMsgDispatch(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		internal bool
		wantKind string
		wantText string
	}{
		{
			name:     "user_message duplicate is skipped",
			line:     `{"type":"event_msg","payload":{"type":"user_message","message":"dup"}}`,
			internal: true,
		},
		{
			name:     "agent_message duplicate is skipped",
			line:     `{"type":"event_msg","payload":{"type":"agent_message","message":"dup"}}`,
			internal: true,
		},
		{
			name:     "agent_reasoning excluded without flag",
			line:     `{"type":"event_msg","payload":{"type":"agent_reasoning","text":"thinking"}}`,
			internal: false,
		},
		{
			name:     "agent_reasoning included with flag",
			line:     `{"type":"event_msg","payload":{"type":"agent_reasoning","text":"thinking"}}`,
			internal: true,
			wantKind: store.KindAgentReasoning,
			wantText: "thinking",
		},
		{
			name:     "item_completed nested text",
			line:     `{"type":"event_msg","payload":{"type":"item_completed","item":{"text":"done: refactor"}}}`,
			internal: true,
			wantKind: store.KindItemCompleted,
			wantText: "done: refactor",
		},
		{
			name:     "unknown subtype skipped",
			line:     `{"type":"event_msg","payload":{"type":"token_count","count":42}}`,
			internal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := decode(t, tt.line)
			docs := Docs(rec, "/a", 1, "", false, tt.internal)
			if tt.wantKind == "" {
				if len(docs) != 0 {
					t.Fatalf("expected no docs, got %d", len(docs))
				}
				return
			}
			if len(docs) != 1 {
				t.Fatalf("expected 1 doc, got %d", len(docs))
			}
			if docs[0].Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", docs[0].Kind, tt.wantKind)
			}
			if docs[0].Text != tt.wantText {
				t.Errorf("text = %q, want %q", docs[0].Text, tt.wantText)
			}
		})
	}
}

func TestDocs_ReviewOutput(t *testing.T) {
	rec := decode(t, `{"type":"event_msg","payload":{"type":"exited_review_mode",
		"review_output":{"verdict":"approve","notes":"looks fine"}}}`)

	docs := Docs(rec, "/a", 1, "", false, true)
	if len(docs) != 1 {
		t.Fatalf("expected 1 review doc, got %d", len(docs))
	}
	if docs[0].Kind != store.KindReviewOutput {
		t.Errorf("kind = %s", docs[0].Kind)
	}
	if !strings.Contains(docs[0].Text, `"verdict": "approve"`) {
		t.Errorf("review output not prettified: %q", docs[0].Text)
	}

	// A null review_output produces nothing.
	rec = decode(t, `{"type":"event_msg","payload":{"type":"exited_review_mode","review_output":null}}`)
	if docs := Docs(rec, "/a", 1, "", false, true); len(docs) != 0 {
		t.Errorf("null review_output should yield no docs, got %d", len(docs))
	}
}

func TestDocs_UnknownRecordType(t *testing.T) {
	rec := decode(t, `{"type":"turn_context","payload":{"model":"x"}}`)
	if docs := Docs(rec, "/a", 1, "", true, true); len(docs) != 0 {
		t.Errorf("unknown record type should yield no docs, got %d", len(docs))
	}
}

func TestSessionMeta(t *testing.T) {
	rec := decode(t, `{"type":"session_meta","payload":{
		"id":"s1","timestamp":"2025-03-01T10:00:00Z","cwd":"/work",
		"originator":"cli","cli_version":"1.2.3"}}`)

	meta := SessionMeta(rec)
	if meta == nil {
		t.Fatal("expected metadata")
	}
	if meta.ID != "s1" || meta.Cwd != "/work" || meta.CliVersion != "1.2.3" {
		t.Errorf("fields wrong: %+v", meta)
	}
	if meta.Timestamp != "2025-03-01T10:00:00.000Z" {
		t.Errorf("timestamp not normalized: %q", meta.Timestamp)
	}

	// Missing id disqualifies the record.
	rec = decode(t, `{"type":"session_meta","payload":{"cwd":"/work"}}`)
	if SessionMeta(rec) != nil {
		t.Error("expected nil for session_meta without id")
	}

	// Other record types never carry metadata.
	rec = decode(t, `{"type":"event_msg","payload":{"type":"agent_reasoning"}}`)
	if SessionMeta(rec) != nil {
		t.Error("expected nil for non-meta record")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-03-01T10:00:00Z", "2025-03-01T10:00:00.000Z", true},
		{"2025-03-01T10:00:00.123456Z", "2025-03-01T10:00:00.123Z", true},
		{"2025-03-01T12:00:00+02:00", "2025-03-01T10:00:00.000Z", true},
		{"2025-03-01T10:00:00.5", "2025-03-01T10:00:00.500Z", true},
		{"2025-03-01 10:00:00", "2025-03-01T10:00:00.000Z", true},
		{"not a time", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTime(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseTime(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
