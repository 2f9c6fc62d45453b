package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchforge/gamesync/internal/core"
)

func TestDecodeClient_CreateLobby(t *testing.T) {
	raw := []byte(`{"type":"CreateLobby","data":{"Name":"L","Visibility":"Public","Region":"NA","Mode":"Casual"}}`)

	ev, err := DecodeClient(raw)
	require.NoError(t, err)

	cl, ok := ev.(CreateLobby)
	require.True(t, ok)
	require.Equal(t, core.RegionNA, cl.Params.Region)
	require.Equal(t, core.ModeCasual, cl.Params.Mode)
	require.Equal(t, core.VisibilityPublic, cl.Params.Visibility)
}

func TestDecodeClient_CheckMatchWithoutThreshold(t *testing.T) {
	id := core.NewID()
	raw := []byte(`{"type":"CheckMatch","data":{"LobbyID":"` + id.String() + `"}}`)

	ev, err := DecodeClient(raw)
	require.NoError(t, err)

	cm, ok := ev.(CheckMatch)
	require.True(t, ok)
	require.Equal(t, id, cm.LobbyID)
	require.Nil(t, cm.Threshold)
}

func TestDecodeClient_CheckMatchWithThreshold(t *testing.T) {
	id := core.NewID()
	raw := []byte(`{"type":"CheckMatch","data":{"LobbyID":"` + id.String() + `","Threshold":50}}`)

	ev, err := DecodeClient(raw)
	require.NoError(t, err)

	cm := ev.(CheckMatch)
	require.NotNil(t, cm.Threshold)
	require.Equal(t, 50, *cm.Threshold)
}

func TestDecodeClient_UnknownType(t *testing.T) {
	_, err := DecodeClient([]byte(`{"type":"NotARealEvent","data":{}}`))
	require.Error(t, err)
}

func TestDecodeClient_MalformedJSON(t *testing.T) {
	_, err := DecodeClient([]byte(`not json at all`))
	require.Error(t, err)
}

func TestDecodeClient_MissingData(t *testing.T) {
	_, err := DecodeClient([]byte(`{"type":"JoinLobby"}`))
	require.Error(t, err)
}
