// Package core defines the shared domain types used across the session and
// matchmaking engine: player and lobby identifiers, regions, game modes,
// and the Player/Lobby/LobbyParams value types themselves.
package core

import (
	"github.com/google/uuid"
)

// PlayerID uniquely identifies a connected player. Minted server-side on
// connect; never supplied by a client.
type PlayerID = uuid.UUID

// LobbyID uniquely identifies a lobby for its lifetime.
type LobbyID = uuid.UUID

// NewID mints a fresh random identifier, used for both PlayerID and
// LobbyID since they share a representation.
func NewID() uuid.UUID {
	return uuid.New()
}

// Region partitions lobbies and queues for locality. The enumeration is
// fixed; no region is added or removed at runtime.
type Region string

const (
	RegionNA  Region = "NA"
	RegionEU  Region = "EU"
	RegionSA  Region = "SA"
	RegionMEA Region = "MEA"
	RegionAS  Region = "AS"
	RegionAU  Region = "AU"
)

// Regions lists every valid region, in the order the registries should
// pre-seed their per-region buckets.
func Regions() []Region {
	return []Region{RegionNA, RegionEU, RegionSA, RegionMEA, RegionAS, RegionAU}
}

// Valid reports whether r is one of the fixed regions.
func (r Region) Valid() bool {
	switch r {
	case RegionNA, RegionEU, RegionSA, RegionMEA, RegionAS, RegionAU:
		return true
	}
	return false
}

// Visibility controls whether a lobby appears in GetPublicLobbies results.
type Visibility string

const (
	VisibilityPrivate Visibility = "Private"
	VisibilityPublic  Visibility = "Public"
)

// Mode selects the matching rule a lobby's queue entry is paired under.
type Mode string

const (
	ModeCasual      Mode = "Casual"
	ModeCompetitive Mode = "Competitive"
)

// Status is a Lobby's position in its state machine.
type Status string

const (
	StatusIdle     Status = "Idle"
	StatusQueueing Status = "Queueing"
	StatusIngame   Status = "Ingame"
)

// Player holds a connected player's mutable profile.
type Player struct {
	PlayerID PlayerID `json:"player_id"`
	Rating   int      `json:"rating"`
}

// LobbyParams are fixed at lobby creation and never mutated afterward.
type LobbyParams struct {
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	Region     Region     `json:"region"`
	Mode       Mode       `json:"mode"`
}

// Lobby is a waiting room for a match. Players is insertion order; the
// leader is always Players[0] and is never reassigned on member leave.
type Lobby struct {
	LobbyID        LobbyID     `json:"lobby_id"`
	Params         LobbyParams `json:"params"`
	Leader         PlayerID    `json:"leader"`
	Status         Status      `json:"status"`
	Players        []PlayerID  `json:"players"`
	QueueThreshold int         `json:"queue_threshold"`

	// PlayerRatings mirrors each member's rating at the moment it was last
	// captured, so AverageRating can be computed without a round trip
	// through the player registry. The session coordinator refreshes this
	// when the lobby is queued (handleQueueLobby in internal/session).
	PlayerRatings []int `json:"-"`
}

// AverageRating is the integer mean of PlayerRatings (truncation
// division), or 0 for an empty lobby. Restored from
// original_source/src/lobby.rs's Lobby::average_rating, which the
// distillation folded into the competitive queue only. It is a method on
// the value, not a field: a Lobby's JSON encoding includes neither the
// average nor PlayerRatings.
func (l Lobby) AverageRating() int {
	if len(l.PlayerRatings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range l.PlayerRatings {
		sum += r
	}
	return sum / len(l.PlayerRatings)
}

// Clone returns a deep copy safe to hand out of a registry's critical
// section (Players/PlayerRatings are copied, not shared).
func (l Lobby) Clone() Lobby {
	cp := l
	cp.Players = append([]PlayerID(nil), l.Players...)
	cp.PlayerRatings = append([]int(nil), l.PlayerRatings...)
	return cp
}
