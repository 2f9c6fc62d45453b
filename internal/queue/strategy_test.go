package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchforge/gamesync/internal/core"
)

func TestEngineDispatchesByMode(t *testing.T) {
	e := NewEngine()

	casualA := lobbyIn(core.RegionNA)
	casualB := lobbyIn(core.RegionNA)
	require.NoError(t, e.Enqueue(casualA))
	require.NoError(t, e.Enqueue(casualB))

	a, b, ok, err := e.TryMatch(casualA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, casualA.LobbyID, a.LobbyID)
	require.Equal(t, casualB.LobbyID, b.LobbyID)

	compA := ratedLobby(core.RegionEU, 1000, 50)
	compB := ratedLobby(core.RegionEU, 1020, 50)
	require.NoError(t, e.Enqueue(compA))
	require.NoError(t, e.Enqueue(compB))

	ca, cb, ok, err := e.TryMatch(compA)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, compA.LobbyID, ca.LobbyID)
	require.Equal(t, compB.LobbyID, cb.LobbyID)
}

func TestEngineUnknownModeErrors(t *testing.T) {
	e := NewEngine()
	l := lobbyIn(core.RegionNA)
	l.Params.Mode = core.Mode("Ranked")

	err := e.Enqueue(l)
	require.Error(t, err)
}

func TestEngineDequeueIsIdempotent(t *testing.T) {
	e := NewEngine()
	l := lobbyIn(core.RegionSA)
	require.NoError(t, e.Enqueue(l))
	require.NoError(t, e.Dequeue(l))
	require.NoError(t, e.Dequeue(l))
}
