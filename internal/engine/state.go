package engine

import (
	"sync"
	"time"

	"github.com/huerizon/skysyncd/internal/color"
)

// FilterState is the per-target mutable state: the last applied color and
// when it was applied. Updated only by a successful apply; reset on
// reconfiguration. Not internally synchronized; the engine serializes
// access to it.
type FilterState struct {
	LastApplied   *color.Canonical `json:"last_applied,omitempty"`
	LastAppliedAt *time.Time       `json:"last_applied_at,omitempty"`
}

// StateStore persists FilterState per target light so a restart does not
// re-trigger the first-reading rule.
type StateStore interface {
	Get(target string) (FilterState, bool, error)
	Set(target string, st FilterState) error
	Clear() error
}

// MemoryStateStore is an in-process StateStore for tests and for running
// without a database.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]FilterState
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]FilterState)}
}

func (s *MemoryStateStore) Get(target string) (FilterState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[target]
	return st, ok, nil
}

func (s *MemoryStateStore) Set(target string, st FilterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[target] = st
	return nil
}

func (s *MemoryStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]FilterState)
	return nil
}
