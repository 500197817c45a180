package store

// Doc represents a row in the docs table: one extracted text segment.
// DocID is derived from file path, line number and segment index, so
// re-ingesting the same file region is idempotent.
type Doc struct {
	DocID     string
	SessionID string // "" when the owning session is not yet known
	FilePath  string
	LineNo    int64
	EventTS   string // normalized UTC timestamp, "" when absent
	EventType string
	InnerType string
	Role      string // "user", "assistant", or ""
	Kind      string
	Text      string
}

// FileCursor represents a row in the files table: per-file tail bookkeeping.
// LastOffset and LastLineNo only move forward, except on a truncation reset.
type FileCursor struct {
	Path       string
	SessionID  string
	Size       int64
	Mtime      string
	MtimeEpoch float64
	LastOffset int64
	LastLineNo int64
	LastSeenAt string
}

// Session represents a row in the sessions table.
type Session struct {
	SessionID     string
	FirstTS       string
	LastTS        string
	Cwd           string
	Originator    string
	CliVersion    string
	Source        string
	ModelProvider string
	Instructions  string
}

// SessionMeta holds the raw metadata carried by a session_meta record,
// before merge into the sessions table.
type SessionMeta struct {
	ID            string
	Timestamp     string // normalized, "" when absent
	Cwd           string
	Originator    string
	CliVersion    string
	Source        string
	ModelProvider string
	Instructions  string
}

// SessionSummary is a sessions row joined with per-role document counts,
// as listed by the sessions command.
type SessionSummary struct {
	SessionID     string
	FirstTS       string
	LastTS        string
	Cwd           string
	UserDocs      int64
	AssistantDocs int64
	InternalDocs  int64
}

// Run represents a row in the runs table: one completed refresh.
type Run struct {
	RunID            string
	StartedAt        string
	FinishedAt       string
	FilesScanned     int64
	FilesUpdated     int64
	LinesRead        int64
	LinesParsed      int64
	DocsInserted     int64
	SessionsUpserted int64
	FTSAvailable     bool
	FTSReindexed     bool
}

// DocHit is a docs row returned by a search query, together with the
// per-mode ordering keys. Score is set by ranked search, MatchPos by
// substring search; the unused key is nil.
type DocHit struct {
	DocID     string
	SessionID string
	EventTS   string
	Role      string
	Kind      string
	FilePath  string
	LineNo    int64
	Score     *float64
	MatchPos  *int64
	Text      string
}
