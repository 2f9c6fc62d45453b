package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matchforge/gamesync/internal/core"
)

func lobbyIn(region core.Region) core.Lobby {
	return core.Lobby{
		LobbyID: core.NewID(),
		Params:  core.LobbyParams{Region: region, Mode: core.ModeCasual, Visibility: core.VisibilityPublic},
		Status:  core.StatusQueueing,
	}
}

func TestCasualTryMatch_RequiresTwoEntries(t *testing.T) {
	q := NewCasual()
	l := lobbyIn(core.RegionNA)
	q.Add(core.RegionNA, l)

	_, _, ok := q.TryMatch(core.RegionNA, l.LobbyID)
	require.False(t, ok, "a lone lobby in queue must not match itself")
}

func TestCasualTryMatch_PairsWithHeadMostOther(t *testing.T) {
	q := NewCasual()
	first := lobbyIn(core.RegionNA)
	second := lobbyIn(core.RegionNA)
	third := lobbyIn(core.RegionNA)
	q.Add(core.RegionNA, first)
	q.Add(core.RegionNA, second)
	q.Add(core.RegionNA, third)

	// third requests a match; it must pair with the head of the queue (first),
	// not with second, per spec.md's head-most-other-entry rule.
	a, b, ok := q.TryMatch(core.RegionNA, third.LobbyID)
	require.True(t, ok)
	require.Equal(t, third.LobbyID, a.LobbyID)
	require.Equal(t, first.LobbyID, b.LobbyID)

	require.Equal(t, 1, q.Len(core.RegionNA), "exactly the matched pair is removed")
}

func TestCasualTryMatch_RequesterAtFrontSkipsSelf(t *testing.T) {
	q := NewCasual()
	first := lobbyIn(core.RegionNA)
	second := lobbyIn(core.RegionNA)
	q.Add(core.RegionNA, first)
	q.Add(core.RegionNA, second)

	a, b, ok := q.TryMatch(core.RegionNA, first.LobbyID)
	require.True(t, ok)
	require.Equal(t, first.LobbyID, a.LobbyID)
	require.Equal(t, second.LobbyID, b.LobbyID)
}

func TestCasualTryMatch_UnknownLobby(t *testing.T) {
	q := NewCasual()
	q.Add(core.RegionNA, lobbyIn(core.RegionNA))
	q.Add(core.RegionNA, lobbyIn(core.RegionNA))

	_, _, ok := q.TryMatch(core.RegionNA, uuid.New())
	require.False(t, ok)
	require.Equal(t, 2, q.Len(core.RegionNA), "a failed match must not mutate the queue")
}

func TestCasualRegionsAreIsolated(t *testing.T) {
	q := NewCasual()
	na := lobbyIn(core.RegionNA)
	eu := lobbyIn(core.RegionEU)
	q.Add(core.RegionNA, na)
	q.Add(core.RegionEU, eu)

	require.Equal(t, 1, q.Len(core.RegionNA))
	require.Equal(t, 1, q.Len(core.RegionEU))

	_, _, ok := q.TryMatch(core.RegionNA, na.LobbyID)
	require.False(t, ok, "a region with one entry cannot match across regions")
}

func TestCasualRemove(t *testing.T) {
	q := NewCasual()
	l := lobbyIn(core.RegionSA)
	q.Add(core.RegionSA, l)
	q.Remove(core.RegionSA, l.LobbyID)

	require.Equal(t, 0, q.Len(core.RegionSA))
	q.Remove(core.RegionSA, l.LobbyID) // idempotent
}
