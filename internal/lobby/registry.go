// Package lobby is the region-partitioned table of lobbies, with a
// secondary lobby→region index, described in spec.md §4.3.
//
// Grounded on original_source/src/store.rs's global_lobby_map
// (DashMap<Region, DashMap<Uuid, Lobby>>) and region_lobby_map
// (DashMap<Uuid, Region>), adapted from per-region DashMaps to a single
// mutex-guarded map since spec.md §5 runs the coordinator single-
// threaded; internal/multiplayer/coordinator.go keeps one mutex over
// several maps for the same reason.
package lobby

import (
	"errors"
	"sync"

	"github.com/matchforge/gamesync/internal/core"
)

// ErrNotFound is returned when a lobby ID is unknown to the registry.
var ErrNotFound = errors.New("lobby: not found")

// Registry is the primary lobby_id -> Lobby table plus the region
// secondary index.
type Registry struct {
	mu      sync.RWMutex
	byID    map[core.LobbyID]core.Lobby
	region  map[core.LobbyID]core.Region
}

// New creates an empty lobby registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[core.LobbyID]core.Lobby),
		region: make(map[core.LobbyID]core.Region),
	}
}

// Create inserts a new lobby into the primary table and the region index.
// Both mutations happen under one lock so invariant (4) in spec.md §3
// never observes a partial insert.
func (r *Registry) Create(l core.Lobby) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[l.LobbyID] = l.Clone()
	r.region[l.LobbyID] = l.Params.Region
}

// Get returns a copy of the lobby, preferring value semantics on read so
// callers can't mutate registry state through an aliased pointer (spec.md
// §9's ownership note).
func (r *Registry) Get(id core.LobbyID) (core.Lobby, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id]
	if !ok {
		return core.Lobby{}, ErrNotFound
	}
	return l.Clone(), nil
}

// Region returns the region a lobby was created in.
func (r *Registry) Region(id core.LobbyID) (core.Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.region[id]
	if !ok {
		return "", ErrNotFound
	}
	return reg, nil
}

// Update replaces the stored lobby with l, keyed by l.LobbyID. The region
// index is left untouched — region is immutable once a lobby exists
// (LobbyParams never changes after creation, spec.md §3).
func (r *Registry) Update(l core.Lobby) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[l.LobbyID]; !ok {
		return ErrNotFound
	}
	r.byID[l.LobbyID] = l.Clone()
	return nil
}

// Delete removes a lobby from both the primary table and the region index
// atomically.
func (r *Registry) Delete(id core.LobbyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.region, id)
	return nil
}

// ListPublic returns every Public lobby in region. Order is unspecified
// but stable within a single call (spec.md §4.3).
func (r *Registry) ListPublic(region core.Region) []core.Lobby {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Lobby, 0)
	for id, reg := range r.region {
		if reg != region {
			continue
		}
		l := r.byID[id]
		if l.Params.Visibility == core.VisibilityPublic {
			out = append(out, l.Clone())
		}
	}
	return out
}

// Count returns the number of lobbies currently registered.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
