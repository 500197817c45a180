package store

// SchemaVersion is recorded in settings on first open and bumped on
// incompatible schema changes.
const SchemaVersion = 1

// SchemaDDL defines the SQLite schema for the promptsearch index database.
// Tables: settings, files, sessions, docs, runs.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Process-wide key/value settings (schema version, FTS flags)
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Per source file tail cursor: last-read byte offset and line number
CREATE TABLE IF NOT EXISTS files (
    path TEXT PRIMARY KEY,
    session_id TEXT,
    size INTEGER NOT NULL,
    mtime TEXT NOT NULL,
    mtime_epoch REAL,
    last_offset INTEGER NOT NULL,
    last_line_no INTEGER NOT NULL,
    last_seen_at TEXT NOT NULL
);

-- One row per conversation session, merged across sightings
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    first_ts TEXT,
    last_ts TEXT,
    cwd TEXT,
    originator TEXT,
    cli_version TEXT,
    source TEXT,
    model_provider TEXT,
    instructions TEXT
);

-- Extracted text documents, one per text segment of a log record
CREATE TABLE IF NOT EXISTS docs (
    doc_id TEXT PRIMARY KEY,
    session_id TEXT,
    file_path TEXT NOT NULL,
    line_no INTEGER NOT NULL,
    event_ts TEXT,
    event_type TEXT,
    inner_type TEXT,
    role TEXT,
    kind TEXT NOT NULL,
    text TEXT NOT NULL,
    text_len INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_docs_file ON docs(file_path);
CREATE INDEX IF NOT EXISTS idx_docs_session ON docs(session_id);

-- History of refresh runs, newest first by started_at
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    files_scanned INTEGER NOT NULL DEFAULT 0,
    files_updated INTEGER NOT NULL DEFAULT 0,
    lines_read INTEGER NOT NULL DEFAULT 0,
    lines_parsed INTEGER NOT NULL DEFAULT 0,
    docs_inserted INTEGER NOT NULL DEFAULT 0,
    sessions_upserted INTEGER NOT NULL DEFAULT 0,
    fts_available INTEGER NOT NULL DEFAULT 0,
    fts_reindexed INTEGER NOT NULL DEFAULT 0
);
`

// ftsDDL creates the external-content FTS5 index over docs. Kept separate
// from SchemaDDL because FTS5 is an optional engine capability: executing
// this statement doubles as the capability probe.
//
// There are deliberately no sync triggers. The index is rebuilt wholesale
// after ingestion (see RebuildFTS) and the fts_index_ready setting gates
// whether ranked search may trust it.
const ftsDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
    text,
    content=docs,
    content_rowid=rowid
);
`

// Settings keys.
const (
	settingSchemaVersion = "schema_version"
	settingFTSAvailable  = "fts_available"
	settingFTSIndexReady = "fts_index_ready"
	settingFTSReindexed  = "fts_reindexed_at"
)

// Document kinds produced by extraction.
const (
	KindMessageContent = "message_content"
	KindMessageSummary = "message_summary"
	KindAgentReasoning = "agent_reasoning"
	KindItemCompleted  = "item_completed"
	KindReviewOutput   = "review_output"
)
