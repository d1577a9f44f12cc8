package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLStore is the SQLite-backed Store.
type SQLStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, creating the parent
// directory when needed.
func Open(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

func (s *SQLStore) SaveSession(rec *SessionRecord) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.ID == "" {
		return errors.New("record has no session id")
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sessions
			(id, artifact_ref, mime, success, error, started_at, duration_ms,
			 confidence, early_exit, early_exit_reason, completed_units, failed_units, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ArtifactRef, rec.MIME, boolInt(rec.Success), rec.Error,
		rec.StartedAt, rec.DurationMS, rec.Confidence, boolInt(rec.EarlyExit),
		rec.EarlyExitReason, rec.CompletedUnits, rec.FailedUnits, rec.ResultJSON)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLStore) GetSession(id string) (*SessionRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, artifact_ref, mime, success, error, started_at, duration_ms,
		       confidence, early_exit, early_exit_reason, completed_units, failed_units, result_json
		FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return rec, err
}

func (s *SQLStore) ListSessions(limit int) ([]*SessionRecord, error) {
	query := `
		SELECT id, artifact_ref, mime, success, error, started_at, duration_ms,
		       confidence, early_exit, early_exit_reason, completed_units, failed_units, result_json
		FROM sessions ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var success, earlyExit int
	var errMsg, exitReason sql.NullString
	err := row.Scan(&rec.ID, &rec.ArtifactRef, &rec.MIME, &success, &errMsg,
		&rec.StartedAt, &rec.DurationMS, &rec.Confidence, &earlyExit,
		&exitReason, &rec.CompletedUnits, &rec.FailedUnits, &rec.ResultJSON)
	if err != nil {
		return nil, err
	}
	rec.Success = success != 0
	rec.EarlyExit = earlyExit != 0
	rec.Error = errMsg.String
	rec.EarlyExitReason = exitReason.String
	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
