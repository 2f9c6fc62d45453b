package queue

import (
	"sort"
	"sync"

	"github.com/matchforge/gamesync/internal/core"
)

// competitiveEntry pairs a queued lobby with the sequence number it was
// inserted under, so ties in average_rating break on insertion order
// (spec.md §4.4) without relying on a stable sort surviving every mutation.
type competitiveEntry struct {
	lobby core.Lobby
	seq   uint64
}

// Competitive is a per-region, rating-ordered queue of lobbies awaiting a
// competitive match. Unlike Casual, entries are kept sorted by
// AverageRating so TryMatch visits candidates in rating order.
type Competitive struct {
	mu      sync.Mutex
	byRegion map[core.Region][]competitiveEntry
	nextSeq uint64
}

// NewCompetitive creates an empty competitive queue pre-seeded with every
// region.
func NewCompetitive() *Competitive {
	c := &Competitive{byRegion: make(map[core.Region][]competitiveEntry)}
	for _, r := range core.Regions() {
		c.byRegion[r] = nil
	}
	return c
}

// Add inserts lobby into region's queue, keeping the slice sorted by
// AverageRating (ties ordered by insertion sequence). The lobby's own
// QueueThreshold at the moment of insertion becomes its stored window
// bound until a later UpdateThreshold call refreshes it.
func (c *Competitive) Add(region core.Region, l core.Lobby) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	entry := competitiveEntry{lobby: l.Clone(), seq: c.nextSeq}

	q := c.byRegion[region]
	i := sort.Search(len(q), func(i int) bool {
		return q[i].lobby.AverageRating() > entry.lobby.AverageRating()
	})
	q = append(q, competitiveEntry{})
	copy(q[i+1:], q[i:])
	q[i] = entry
	c.byRegion[region] = q
}

// UpdateThreshold refreshes the stored queue_threshold for lobbyID's entry
// in region's queue, so its mutual-consent window reflects the leader's
// most recent CheckMatch call (spec.md invariant 7). A miss is a no-op:
// the lobby may have already matched or left the queue.
func (c *Competitive) UpdateThreshold(region core.Region, lobbyID core.LobbyID, threshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.byRegion[region]
	for i := range q {
		if q[i].lobby.LobbyID == lobbyID {
			q[i].lobby.QueueThreshold = threshold
			return
		}
	}
}

// Remove excises lobbyID from region's queue.
func (c *Competitive) Remove(region core.Region, lobbyID core.LobbyID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.byRegion[region]
	out := make([]competitiveEntry, 0, len(q))
	for _, e := range q {
		if e.lobby.LobbyID != lobbyID {
			out = append(out, e)
		}
	}
	c.byRegion[region] = out
}

// TryMatch locates the requesting lobby in region's queue and scans the
// rest for the first candidate whose own tolerance window mutually
// intersects the requester's — each side's window is built from its own
// stored queue_threshold (spec.md §4.4: r1-t1 <= r2+t2 AND r2-t2 <= r1+t1),
// not the requester's threshold applied to both sides. Window bounds use
// saturating subtraction at zero (spec.md §4.4 edge-case policy), so a
// rating below threshold never wraps negative. Candidates are visited in
// queue order (rating-ascending, ties by insertion), so the match returned
// is the first mutually-consenting one, not the closest.
func (c *Competitive) TryMatch(region core.Region, lobbyID core.LobbyID) (a, b core.Lobby, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := c.byRegion[region]
	reqIdx := -1
	for i, e := range q {
		if e.lobby.LobbyID == lobbyID {
			reqIdx = i
			break
		}
	}
	if reqIdx < 0 {
		return core.Lobby{}, core.Lobby{}, false
	}

	requester := q[reqIdx]
	rMin, rMax := window(requester.lobby.AverageRating(), requester.lobby.QueueThreshold)

	for i, cand := range q {
		if i == reqIdx {
			continue
		}
		cMin, cMax := window(cand.lobby.AverageRating(), cand.lobby.QueueThreshold)
		if rMin <= cMax && cMin <= rMax {
			out := make([]competitiveEntry, 0, len(q)-2)
			for j, e := range q {
				if j == reqIdx || j == i {
					continue
				}
				out = append(out, e)
			}
			c.byRegion[region] = out
			return requester.lobby.Clone(), cand.lobby.Clone(), true
		}
	}

	return core.Lobby{}, core.Lobby{}, false
}

// Len returns how many lobbies are queued in region.
func (c *Competitive) Len(region core.Region) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byRegion[region])
}

// window returns [rating-threshold, rating+threshold], clamped so the lower
// bound never drops below zero.
func window(rating, threshold int) (min, max int) {
	min = rating - threshold
	if min < 0 {
		min = 0
	}
	max = rating + threshold
	return min, max
}
