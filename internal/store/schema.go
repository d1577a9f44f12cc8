package store

// schemaVersion is bumped on DDL changes; Open refuses a newer on-disk
// schema rather than guessing at migrations.
const schemaVersion = 1

var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	artifact_ref      TEXT NOT NULL,
	mime              TEXT NOT NULL,
	success           INTEGER NOT NULL,
	error             TEXT,
	started_at        TEXT NOT NULL,
	duration_ms       INTEGER NOT NULL,
	confidence        REAL NOT NULL,
	early_exit        INTEGER NOT NULL,
	early_exit_reason TEXT,
	completed_units   INTEGER NOT NULL,
	failed_units      INTEGER NOT NULL,
	result_json       BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
`
