// Package stores provides centralized access to typed state stores.
package stores

import (
	"github.com/huerizon/skysyncd/internal/engine"
	"github.com/huerizon/skysyncd/internal/state"
)

// KindFilterState is the resource kind for per-target filter state.
const KindFilterState = "filter_state"

// Registry provides centralized access to all typed stores.
// This replaces passing individual stores throughout the codebase.
type Registry struct {
	base        *state.Store
	filterStore *state.TypedStore[engine.FilterState]
}

// NewRegistry creates a new store registry with typed stores for each resource kind.
func NewRegistry(base *state.Store) *Registry {
	return &Registry{
		base:        base,
		filterStore: state.NewTypedStore[engine.FilterState](base, KindFilterState),
	}
}

// FilterStates returns the typed store for per-target filter state.
func (r *Registry) FilterStates() *state.TypedStore[engine.FilterState] {
	return r.filterStore
}

// Clear removes all state from all stores.
func (r *Registry) Clear() error {
	return r.filterStore.Clear()
}

// FilterStateStore adapts the typed store to the engine's StateStore
// interface. A version of 0 means the target has no persisted state.
type FilterStateStore struct {
	store *state.TypedStore[engine.FilterState]
}

// NewFilterStateStore wraps the registry's filter-state store.
func NewFilterStateStore(r *Registry) *FilterStateStore {
	return &FilterStateStore{store: r.FilterStates()}
}

func (s *FilterStateStore) Get(target string) (engine.FilterState, bool, error) {
	st, version, err := s.store.Get(target)
	if err != nil {
		return engine.FilterState{}, false, err
	}
	return st, version > 0, nil
}

func (s *FilterStateStore) Set(target string, st engine.FilterState) error {
	return s.store.Set(target, st)
}

func (s *FilterStateStore) Clear() error {
	return s.store.Clear()
}
