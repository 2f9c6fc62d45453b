// Package queue implements the two region-partitioned, mode-specific
// matchmaking structures described in spec.md §4.4: a FIFO casual queue
// and a rating-window competitive queue.
//
// The original Rust implementation's queue module was not present in the
// retrieved source (original_source/_INDEX.md lists store.rs and
// networking.rs calling add_casual_lobby/check_competitive_lobby etc. but
// not their definitions), so this package is grounded directly on spec.md
// §4.4's operation contracts, shaped like the map-of-slices registries
// in the teacher codebase (internal/registry/registry.go,
// internal/multiplayer/coordinator.go's lobbies map).
package queue

import (
	"sync"

	"github.com/matchforge/gamesync/internal/core"
)

// Casual is a per-region FIFO queue of lobbies awaiting a casual match.
type Casual struct {
	mu      sync.Mutex
	byRegion map[core.Region][]core.Lobby
}

// NewCasual creates an empty casual queue pre-seeded with every region.
func NewCasual() *Casual {
	c := &Casual{byRegion: make(map[core.Region][]core.Lobby)}
	for _, r := range core.Regions() {
		c.byRegion[r] = nil
	}
	return c
}

// Add appends lobby to the tail of its region's queue.
func (c *Casual) Add(region core.Region, l core.Lobby) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRegion[region] = append(c.byRegion[region], l.Clone())
}

// Remove excises lobbyID from region's queue, preserving the relative
// order of the remaining entries. A no-op if lobbyID is not present.
func (c *Casual) Remove(region core.Region, lobbyID core.LobbyID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRegion[region] = removeByID(c.byRegion[region], lobbyID)
}

// TryMatch looks up the requesting lobby in region's queue. If the queue
// holds at least two entries, the requester is paired with the head-most
// OTHER entry: the front is popped, and if the front happens to be the
// requester itself, the (new) front is popped instead. On success both
// lobbies are removed atomically and returned; otherwise the queue is left
// unchanged and ok is false.
func (c *Casual) TryMatch(region core.Region, lobbyID core.LobbyID) (a, b core.Lobby, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.byRegion[region]
	idx := indexByID(q, lobbyID)
	if idx < 0 {
		return core.Lobby{}, core.Lobby{}, false
	}
	if len(q) < 2 {
		return core.Lobby{}, core.Lobby{}, false
	}

	requester := q[idx]

	front := 0
	if front == idx {
		front = 1
	}
	opponent := q[front]

	remaining := make([]core.Lobby, 0, len(q)-2)
	for i, l := range q {
		if i == idx || i == front {
			continue
		}
		remaining = append(remaining, l)
	}
	c.byRegion[region] = remaining

	return requester.Clone(), opponent.Clone(), true
}

// Len returns how many lobbies are queued in region, for tests/metrics.
func (c *Casual) Len(region core.Region) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byRegion[region])
}

func indexByID(q []core.Lobby, id core.LobbyID) int {
	for i, l := range q {
		if l.LobbyID == id {
			return i
		}
	}
	return -1
}

func removeByID(q []core.Lobby, id core.LobbyID) []core.Lobby {
	out := make([]core.Lobby, 0, len(q))
	for _, l := range q {
		if l.LobbyID != id {
			out = append(out, l)
		}
	}
	return out
}
