// package cache provides query-result caches for the resolution engine. The
// memory cache scopes to a single run; the sqlite cache persists across runs
// so repeated dates skip the catalog entirely.
package cache

import (
	"sync"

	"github.com/desertthunder/hitcapsule/internal/match"
)

// Memory is a mutex-guarded in-process cache of search results keyed by
// normalized query text. Safe for concurrent resolver workers.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]match.Candidate
}

// NewMemory creates an empty in-memory query cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]match.Candidate)}
}

// Get returns the cached candidates for key. A cached empty result is a hit.
func (m *Memory) Get(key string) ([]match.Candidate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates, ok := m.entries[key]
	if !ok {
		return nil, false
	}

	out := make([]match.Candidate, len(candidates))
	copy(out, candidates)
	return out, true
}

// Put stores candidates under key. First write wins.
func (m *Memory) Put(key string, candidates []match.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; ok {
		return nil
	}

	stored := make([]match.Candidate, len(candidates))
	copy(stored, candidates)
	m.entries[key] = stored
	return nil
}

// Len reports the number of cached queries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
