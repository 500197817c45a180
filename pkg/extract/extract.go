// Package extract converts decoded session-log records into text documents.
// It is pure: no I/O, no store access. Unknown record shapes and missing
// fields are skipped silently because the log format is evolving and older
// or newer files must keep ingesting.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"promptsearch/pkg/store"
)

// Record is one decoded line of a session log file.
type Record struct {
	Type      string
	Timestamp string // raw timestamp string, unparsed
	Payload   json.RawMessage
}

// Record type values recognized in session logs.
const (
	recordSessionMeta  = "session_meta"
	recordResponseItem = "response_item"
	recordEventMsg     = "event_msg"
)

// Inner event_msg subtypes.
const (
	innerMessage        = "message"
	innerUserMessage    = "user_message"
	innerAgentMessage   = "agent_message"
	innerAgentReasoning = "agent_reasoning"
	innerItemCompleted  = "item_completed"
	innerExitedReview   = "exited_review_mode"
)

// DecodeRecord parses one log line. The error return is reserved for
// malformed JSON, which tailing treats as evidence of a partial write; a
// line that is valid JSON but not an object decodes to (nil, false, nil)
// and is skipped.
func DecodeRecord(line []byte) (*Record, bool, error) {
	if !json.Valid(line) {
		return nil, false, fmt.Errorf("invalid json record")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		// Valid JSON, but a scalar or array rather than a record.
		return nil, false, nil
	}
	rec := &Record{Payload: raw["payload"]}
	_ = json.Unmarshal(raw["type"], &rec.Type)
	_ = json.Unmarshal(raw["timestamp"], &rec.Timestamp)
	return rec, true, nil
}

// messagePayload is the shape of a response_item payload.
type messagePayload struct {
	Type    string            `json:"type"`
	Role    string            `json:"role"`
	Content []json.RawMessage `json:"content"`
	Summary []json.RawMessage `json:"summary"`
}

// eventPayload is the shape of an event_msg payload.
type eventPayload struct {
	Type         string          `json:"type"`
	Text         string          `json:"text"`
	Item         json.RawMessage `json:"item"`
	ReviewOutput json.RawMessage `json:"review_output"`
}

// metaPayload is the shape of a session_meta payload.
type metaPayload struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Cwd           string `json:"cwd"`
	Originator    string `json:"originator"`
	CliVersion    string `json:"cli_version"`
	Source        string `json:"source"`
	ModelProvider string `json:"model_provider"`
	Instructions  string `json:"instructions"`
}

// Docs converts one record into 0..N extracted documents.
//
// A response_item message yields one document per non-empty content segment
// and one per non-empty summary segment; summaries exist because some
// content may be encrypted while a plaintext summary survives. The segment
// index runs across both lists so doc ids stay unique within the record.
// An event_msg is dispatched by subtype; user/agent message subtypes are
// skipped because they already exist as response_item records.
func Docs(rec *Record, filePath string, lineNo int64, sessionHint string, includeAssistant, includeInternal bool) []store.Doc {
	eventTS, _ := ParseTime(rec.Timestamp)

	segIdx := 0
	var out []store.Doc
	addDoc := func(role, kind, innerType, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		segIdx++
		out = append(out, store.Doc{
			DocID:     fmt.Sprintf("%s:%d:%d", filePath, lineNo, segIdx),
			SessionID: sessionHint,
			FilePath:  filePath,
			LineNo:    lineNo,
			EventTS:   eventTS,
			EventType: rec.Type,
			InnerType: innerType,
			Role:      role,
			Kind:      kind,
			Text:      text,
		})
	}

	switch rec.Type {
	case recordResponseItem:
		var p messagePayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil || p.Type != innerMessage {
			return nil
		}
		if p.Role == "assistant" && !includeAssistant {
			return nil
		}
		for _, text := range segmentTexts(p.Content) {
			addDoc(p.Role, store.KindMessageContent, p.Type, text)
		}
		// Encrypted sessions keep plaintext summaries alongside the content.
		for _, text := range segmentTexts(p.Summary) {
			addDoc(p.Role, store.KindMessageSummary, p.Type, text)
		}
		return out

	case recordEventMsg:
		var p eventPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return nil
		}
		switch p.Type {
		case innerUserMessage, innerAgentMessage:
			return nil
		case innerAgentReasoning:
			if !includeInternal {
				return nil
			}
			addDoc("", store.KindAgentReasoning, p.Type, p.Text)
			return out
		case innerItemCompleted:
			if !includeInternal {
				return nil
			}
			var item struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(p.Item, &item); err == nil {
				addDoc("", store.KindItemCompleted, p.Type, item.Text)
			}
			return out
		case innerExitedReview:
			if !includeInternal {
				return nil
			}
			if len(p.ReviewOutput) > 0 && string(p.ReviewOutput) != "null" {
				addDoc("", store.KindReviewOutput, p.Type, prettyJSON(p.ReviewOutput))
			}
			return out
		}
		return nil
	}

	return nil
}

// SessionMeta returns the metadata carried by a session_meta record, or nil
// when the record is of another kind or lacks a non-empty session id.
func SessionMeta(rec *Record) *store.SessionMeta {
	if rec.Type != recordSessionMeta {
		return nil
	}
	var p metaPayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return nil
	}
	if p.ID == "" {
		return nil
	}
	ts, _ := ParseTime(p.Timestamp)
	return &store.SessionMeta{
		ID:            p.ID,
		Timestamp:     ts,
		Cwd:           p.Cwd,
		Originator:    p.Originator,
		CliVersion:    p.CliVersion,
		Source:        p.Source,
		ModelProvider: p.ModelProvider,
		Instructions:  p.Instructions,
	}
}

// segmentTexts extracts the non-empty text of each {type, text} segment,
// skipping elements of any other shape.
func segmentTexts(items []json.RawMessage) []string {
	var out []string
	for _, item := range items {
		var seg struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &seg); err != nil {
			continue
		}
		if strings.TrimSpace(seg.Text) != "" {
			out = append(out, seg.Text)
		}
	}
	return out
}

// prettyJSON renders a raw JSON value indented with sorted keys, for
// review_output documents.
func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}
