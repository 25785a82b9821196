package ledger

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the ledger schema.
// Times are stored as Unix nanoseconds so both drivers read them back the
// same way.
const Schema = `
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    request_id TEXT,

    kind TEXT NOT NULL,
    session_id TEXT,
    scene TEXT,
    model TEXT NOT NULL,

    status TEXT NOT NULL,
    error_type TEXT,

    input_chars INTEGER NOT NULL DEFAULT 0,
    output_chars INTEGER NOT NULL DEFAULT 0,
    chunks INTEGER NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL,
    latency_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
CREATE INDEX IF NOT EXISTS idx_generations_kind_status ON generations(kind, status);
CREATE INDEX IF NOT EXISTS idx_generations_session ON generations(session_id);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the schema version if it is not present.
const InsertSchemaVersion = `
INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?);
`

// GetSchemaVersion returns the highest applied schema version.
const GetSchemaVersion = `
SELECT MAX(version) FROM schema_version;
`
