// Package signal implements the shared blackboard for one analysis session:
// a concurrently-writable map of namespaced facts ("signals") accumulated by
// analysis units as a session progresses.
//
// Keys are namespaced "category.detail" strings and fold to lower case at the
// map boundary, so "Color.Dominant" and "color.dominant" address the same
// fact. Readers never observe a writer's partial state: the orchestrator
// hands units an immutable Snapshot taken between batches.
package signal

import (
	"sort"
	"strings"
	"sync"
)

// Normalize folds a signal key to its canonical form. Every path into the
// map (writes, reads, trigger evaluation) goes through this.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Map is a guarded key→value store. A later write to an existing key
// overwrites the earlier value; among concurrent writers the last one to
// acquire the lock wins.
type Map struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewMap returns an empty signal map.
func NewMap() *Map {
	return &Map{data: make(map[string]any)}
}

// Set records one signal, overwriting any prior value for the key.
func (m *Map) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[Normalize(key)] = value
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[Normalize(key)]
	return v, ok
}

// Merge writes every pair from values under a single lock acquisition, so a
// unit's signal set lands atomically with respect to other finishers.
func (m *Map) Merge(values map[string]any) {
	if len(values) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[Normalize(k)] = v
	}
}

// Snapshot returns a copy of the current contents. The copy is detached:
// later writes to the map are invisible to holders of the snapshot.
func (m *Map) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Keys returns the present keys in sorted order.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of signals currently present.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
