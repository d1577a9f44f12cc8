package store

import (
	"errors"
	"fmt"
	"sync"
)

// MemStore is the in-memory Store, used by tests and the MCP server's
// per-process session registry.
type MemStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionRecord
	order    []string // insertion order, oldest first
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string]*SessionRecord)}
}

func (s *MemStore) SaveSession(rec *SessionRecord) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.ID == "" {
		return errors.New("record has no session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	cp := *rec
	s.sessions[rec.ID] = &cp
	return nil
}

func (s *MemStore) GetSession(id string) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemStore) ListSessions(limit int) ([]*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*SessionRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *s.sessions[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
