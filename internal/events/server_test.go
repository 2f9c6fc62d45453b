package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchforge/gamesync/internal/core"
)

func TestEncodeServer_RoundTripsType(t *testing.T) {
	id := core.NewID()
	out, err := EncodeServer(LobbyDeleted{LobbyID: id})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(out, &env))
	require.Equal(t, TypeLobbyDeleted, env.Type)

	var payload struct{ LobbyID core.LobbyID }
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, id, payload.LobbyID)
}

func TestEncodeServer_UnitVariants(t *testing.T) {
	out, err := EncodeServer(MatchNotFound{})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(out, &env))
	require.Equal(t, TypeMatchNotFound, env.Type)
}

func TestEncodeServer_ErrorVariant(t *testing.T) {
	out, err := EncodeServer(Error{Kind: "LobbyFullError", Detail: "lobby at capacity"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(out, &env))
	require.Equal(t, TypeError, env.Type)

	var payload Error
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, "LobbyFullError", payload.Kind)
}
