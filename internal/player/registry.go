// Package player holds the per-player profile (rating) and current-lobby
// reference described in spec.md §4.2.
//
// Grounded on original_source/src/store.rs's player_map
// (DashMap<Uuid, (Player, Option<Lobby>)>) and on the map+mutex
// registry shape used in the teacher codebase (internal/registry/
// registry.go, internal/multiplayer/session.go).
package player

import (
	"errors"
	"sync"

	"github.com/matchforge/gamesync/internal/core"
)

// ErrNotFound is returned when a player ID is unknown to the registry.
var ErrNotFound = errors.New("player: not found")

// ErrNotIdle is returned by Edit when the player's lobby is not Idle.
var ErrNotIdle = errors.New("player: current lobby is not idle")

type entry struct {
	player      core.Player
	currentLobby *core.LobbyID
}

// Registry tracks every known player's profile and current lobby.
type Registry struct {
	mu      sync.RWMutex
	players map[core.PlayerID]*entry
}

// New creates an empty player registry.
func New() *Registry {
	return &Registry{players: make(map[core.PlayerID]*entry)}
}

// Add inserts a new player with the given starting rating and no current
// lobby. Overwrites any existing entry for the same ID.
func (r *Registry) Add(id core.PlayerID, rating int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[id] = &entry{player: core.Player{PlayerID: id, Rating: rating}}
}

// Edit updates a player's rating. Rejected with ErrNotIdle if the player's
// current lobby exists and is not Idle — the caller (session coordinator)
// supplies lobbyIsIdle by consulting the lobby registry, since player and lobby
// registries are separate stores per spec.md §4.2.
func (r *Registry) Edit(id core.PlayerID, newRating int, lobbyIsIdle func(core.LobbyID) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.players[id]
	if !ok {
		return ErrNotFound
	}
	if e.currentLobby != nil && !lobbyIsIdle(*e.currentLobby) {
		return ErrNotIdle
	}
	e.player.Rating = newRating
	return nil
}

// SetLobby sets or clears a player's current lobby. Passing a nil lobbyID
// clears it. Every mutation to a lobby's player list must be paired with a
// matching call here (invariant 2 in spec.md §3).
func (r *Registry) SetLobby(id core.PlayerID, lobbyID *core.LobbyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.players[id]
	if !ok {
		return ErrNotFound
	}
	e.currentLobby = lobbyID
	return nil
}

// Get returns a copy of the player and their current lobby ID, if any.
func (r *Registry) Get(id core.PlayerID) (core.Player, *core.LobbyID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.players[id]
	if !ok {
		return core.Player{}, nil, ErrNotFound
	}
	var lobby *core.LobbyID
	if e.currentLobby != nil {
		l := *e.currentLobby
		lobby = &l
	}
	return e.player, lobby, nil
}

// Remove deletes a player entirely. Idempotent.
func (r *Registry) Remove(id core.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// Count returns the number of known players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
