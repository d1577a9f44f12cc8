// Package store persists finished session results so earlier analyses can
// be listed and re-inspected. The orchestrator itself never touches it;
// callers save the Result they get back. Implementation is SQLite or
// in-memory behind one facade.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"percept/internal/analyze"
)

// DefaultDBPath is the default relative path for the SQLite DB
// (per-workspace). Open() creates the parent dir.
const DefaultDBPath = ".percept/percept.db"

// SessionRecord is one persisted session: summary columns for listing plus
// the full result as JSON.
type SessionRecord struct {
	ID              string
	ArtifactRef     string
	MIME            string
	Success         bool
	Error           string
	StartedAt       string // RFC3339
	DurationMS      int64
	Confidence      float64
	EarlyExit       bool
	EarlyExitReason string
	CompletedUnits  int
	FailedUnits     int
	ResultJSON      []byte
}

// Store is the persistence facade.
type Store interface {
	SaveSession(rec *SessionRecord) error
	GetSession(id string) (*SessionRecord, error)
	// ListSessions returns the most recent sessions, newest first.
	// limit <= 0 means no limit.
	ListSessions(limit int) ([]*SessionRecord, error)
	Close() error
}

// FromResult flattens an orchestrator Result into a record. When the caller
// has no mime of its own, the format unit's artifact.mime signal fills the
// column.
func FromResult(res *analyze.Result, artifactRef, mime string, startedAt time.Time) (*SessionRecord, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	if mime == "" {
		if v, ok := res.Signals["artifact.mime"].(string); ok {
			mime = v
		}
	}
	return &SessionRecord{
		ID:              res.SessionID,
		ArtifactRef:     artifactRef,
		MIME:            mime,
		Success:         res.Success,
		Error:           res.Error,
		StartedAt:       startedAt.UTC().Format(time.RFC3339),
		DurationMS:      res.ProcessingTime.Milliseconds(),
		Confidence:      res.Confidence,
		EarlyExit:       res.EarlyExit,
		EarlyExitReason: res.EarlyExitReason,
		CompletedUnits:  len(res.Completed),
		FailedUnits:     len(res.Failed),
		ResultJSON:      payload,
	}, nil
}

// Result unpacks the stored full result.
func (r *SessionRecord) Result() (*analyze.Result, error) {
	var res analyze.Result
	if err := json.Unmarshal(r.ResultJSON, &res); err != nil {
		return nil, fmt.Errorf("unmarshal stored result: %w", err)
	}
	return &res, nil
}
