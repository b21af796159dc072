package storage

// SchemaVersion is the current request log schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the request log schema.
// The table is namespaced so the database file can be shared with unrelated
// application tables.
const Schema = `
CREATE TABLE IF NOT EXISTS palisade_request_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid TEXT NOT NULL,
    key_id INTEGER NOT NULL DEFAULT 0,
    timestamp TIMESTAMP NOT NULL,
    endpoint TEXT NOT NULL,
    status TEXT NOT NULL,
    result TEXT,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    request_bytes INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_palisade_request_logs_key_id ON palisade_request_logs(key_id);
CREATE INDEX IF NOT EXISTS idx_palisade_request_logs_endpoint ON palisade_request_logs(endpoint);
CREATE INDEX IF NOT EXISTS idx_palisade_request_logs_timestamp ON palisade_request_logs(timestamp);

CREATE TABLE IF NOT EXISTS palisade_request_logs_meta (
    version INTEGER PRIMARY KEY
);
`

// InsertSchemaVersion records the schema version, ignoring re-runs.
const InsertSchemaVersion = `INSERT OR IGNORE INTO palisade_request_logs_meta (version) VALUES (?);`

// GetSchemaVersion reads back the recorded schema version.
const GetSchemaVersion = `SELECT version FROM palisade_request_logs_meta LIMIT 1;`
