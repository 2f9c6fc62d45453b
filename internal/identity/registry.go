// Package identity binds each live transport endpoint to a freshly minted
// player identifier and back, maintaining invariant (1) from spec.md: the
// registry is a bijection between connected endpoints and player IDs.
//
// Shaped on internal/multiplayer/session.go's SessionRegistry
// (map + sync.RWMutex, Register/Unregister/Get) and on
// original_source/src/store.rs's user_endpoint_map/endpoint_user_map pair.
package identity

import (
	"sync"

	"github.com/matchforge/gamesync/internal/core"
)

// Endpoint is the transport-neutral handle for a connected peer. The
// coordinator and dispatcher only ever see this interface, never a
// concrete websocket connection.
type Endpoint interface {
	// Send writes one already-encoded event payload to the peer.
	Send(payload []byte) error

	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}

// Registry is a thread-safe bijection between Endpoints and PlayerIDs.
type Registry struct {
	mu              sync.RWMutex
	endpointToPlayer map[Endpoint]core.PlayerID
	playerToEndpoint map[core.PlayerID]Endpoint
}

// New creates an empty identity registry.
func New() *Registry {
	return &Registry{
		endpointToPlayer: make(map[Endpoint]core.PlayerID),
		playerToEndpoint: make(map[core.PlayerID]Endpoint),
	}
}

// Attach mints a fresh player ID for endpoint and inserts both directions
// atomically.
func (r *Registry) Attach(endpoint Endpoint) core.PlayerID {
	id := core.NewID()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointToPlayer[endpoint] = id
	r.playerToEndpoint[id] = endpoint
	return id
}

// ResolveEndpoint returns the player bound to endpoint, if any.
func (r *Registry) ResolveEndpoint(endpoint Endpoint) (core.PlayerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.endpointToPlayer[endpoint]
	return id, ok
}

// ResolvePlayer returns the endpoint bound to playerID, if any.
func (r *Registry) ResolvePlayer(playerID core.PlayerID) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.playerToEndpoint[playerID]
	return ep, ok
}

// Detach removes both directions for endpoint. Idempotent: detaching an
// endpoint that was never attached (or already detached) is a no-op.
func (r *Registry) Detach(endpoint Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.endpointToPlayer[endpoint]
	if !ok {
		return
	}
	delete(r.endpointToPlayer, endpoint)
	delete(r.playerToEndpoint, id)
}

// AllEndpoints returns every currently connected endpoint, for the
// dispatcher's send_to_all_except fan-out. The returned slice is a
// snapshot; it does not alias registry state.
func (r *Registry) AllEndpoints() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, 0, len(r.endpointToPlayer))
	for ep := range r.endpointToPlayer {
		out = append(out, ep)
	}
	return out
}

// Count returns the number of connected endpoints.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpointToPlayer)
}
