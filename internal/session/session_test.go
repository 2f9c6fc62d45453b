package session

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matchforge/gamesync/internal/core"
	"github.com/matchforge/gamesync/internal/events"
)

func parseUUID(s string) (core.PlayerID, error) {
	return uuid.Parse(s)
}

func encodeClientForTest(t *testing.T, ev events.ClientEvent) []byte {
	t.Helper()
	raw, err := events.EncodeClient(ev)
	require.NoError(t, err)
	return raw
}

// fakeEndpoint stands in for a live transport connection: Send decodes and
// records the event instead of writing to a socket, matching the style a
// unit test would use if session.Dispatcher depended on a real net.Conn.
type fakeEndpoint struct {
	addr string

	mu       sync.Mutex
	received []events.ServerEvent
}

func newFakeEndpoint(addr string) *fakeEndpoint {
	return &fakeEndpoint{addr: addr}
}

func (f *fakeEndpoint) Send(payload []byte) error {
	ev, err := events.DecodeServer(payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, ev)
	return nil
}

func (f *fakeEndpoint) RemoteAddr() string { return f.addr }

func (f *fakeEndpoint) drain() []events.ServerEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.received
	f.received = nil
	return out
}

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
}

// harness spins up a coordinator and connects n fake clients, waiting out
// the SelfPlayer/NewPlayer settle window so tests start from a clean slate.
type harness struct {
	t     *testing.T
	coord *Coordinator
	eps   []*fakeEndpoint
	ids   []core.PlayerID
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	coord := NewCoordinator(DefaultConfig(), testLogger())
	coord.Start()
	t.Cleanup(coord.Stop)

	h := &harness{t: t, coord: coord}
	for i := 0; i < n; i++ {
		ep := newFakeEndpoint(time.Now().String())
		coord.HandleConnect(ep)
		h.eps = append(h.eps, ep)
	}
	// settle past the 100ms NewPlayer broadcast and resolve each endpoint's
	// minted ID via the SelfPlayer frame it was sent first.
	time.Sleep(150 * time.Millisecond)
	for _, ep := range h.eps {
		evs := ep.drain()
		require.NotEmpty(t, evs)
		self, ok := evs[0].(events.SelfPlayer)
		require.True(t, ok, "first frame to a new connection must be SelfPlayer")
		id, err := parseUUID(self.ID)
		require.NoError(t, err)
		h.ids = append(h.ids, id)
	}
	return h
}

func (h *harness) send(i int, ev events.ClientEvent) {
	h.coord.HandleInbound(h.eps[i], encodeClientForTest(h.t, ev))
	time.Sleep(5 * time.Millisecond)
}

func TestScenario_CreateAndJoinLobby(t *testing.T) {
	h := newHarness(t, 2)

	h.send(0, events.CreateLobby{Params: core.LobbyParams{Name: "L", Visibility: core.VisibilityPublic, Region: core.RegionNA, Mode: core.ModeCasual}})
	created := h.eps[0].drain()
	require.Len(t, created, 1)
	lc, ok := created[0].(events.LobbyCreated)
	require.True(t, ok)
	lobbyID := lc.Lobby.LobbyID

	h.send(1, events.JoinLobby{LobbyID: lobbyID})

	for _, ep := range h.eps {
		got := ep.drain()
		require.Len(t, got, 1)
		joined, ok := got[0].(events.LobbyJoined)
		require.True(t, ok)
		require.Equal(t, h.ids[1], joined.PlayerID)
		require.Equal(t, lobbyID, joined.LobbyID)
	}
}

func TestScenario_CasualMatchFound(t *testing.T) {
	h := newHarness(t, 4)

	lobbyA := h.formCasualLobby(0, 1)
	lobbyB := h.formCasualLobby(2, 3)

	h.send(0, events.QueueLobby{LobbyID: lobbyA})
	for i := 0; i < 2; i++ {
		require.Len(t, h.eps[i].drain(), 1)
	}
	h.send(2, events.QueueLobby{LobbyID: lobbyB})
	for i := 2; i < 4; i++ {
		require.Len(t, h.eps[i].drain(), 1)
	}

	h.send(0, events.CheckMatch{LobbyID: lobbyA})

	for i := 0; i < 2; i++ {
		got := h.eps[i].drain()
		require.Len(t, got, 1)
		mf, ok := got[0].(events.MatchFound)
		require.True(t, ok)
		require.Equal(t, lobbyB, mf.Opponent.LobbyID)
	}
	for i := 2; i < 4; i++ {
		got := h.eps[i].drain()
		require.Len(t, got, 1)
		mf, ok := got[0].(events.MatchFound)
		require.True(t, ok)
		require.Equal(t, lobbyA, mf.Opponent.LobbyID)
	}
}

func TestScenario_LeaderDisconnectDuringQueueDestroysLobby(t *testing.T) {
	h := newHarness(t, 2)
	lobbyID := h.formCasualLobby(0, 1)

	h.send(0, events.QueueLobby{LobbyID: lobbyID})
	h.eps[0].drain()
	h.eps[1].drain()

	h.coord.HandleDisconnect(h.eps[0])
	time.Sleep(10 * time.Millisecond)

	got := h.eps[1].drain()
	require.Len(t, got, 3)
	_, isStopped := got[0].(events.QueueStopped)
	require.True(t, isStopped)
	_, isLeft := got[1].(events.LobbyLeft)
	require.True(t, isLeft)
	_, isDeleted := got[2].(events.LobbyDeleted)
	require.True(t, isDeleted)
}

func TestScenario_EditPlayerWhileIngameRejected(t *testing.T) {
	h := newHarness(t, 4)
	lobbyA := h.formCasualLobby(0, 1)
	lobbyB := h.formCasualLobby(2, 3)
	h.send(0, events.QueueLobby{LobbyID: lobbyA})
	h.send(2, events.QueueLobby{LobbyID: lobbyB})
	h.drainAll()
	h.send(0, events.CheckMatch{LobbyID: lobbyA})
	h.drainAll()

	h.send(0, events.EditPlayer{Player: core.Player{PlayerID: h.ids[0], Rating: 500}})
	got := h.eps[0].drain()
	require.Len(t, got, 1)
	errEv, ok := got[0].(events.Error)
	require.True(t, ok)
	require.Equal(t, string(ErrKindPlayerEdit), errEv.Kind)
}

// TestScenario_CompetitiveMutualConsent covers spec.md §8 scenario 3
// end-to-end through the coordinator: a candidate's own stored
// queue_threshold, not the requester's, gates whether a competitive match
// is found.
func TestScenario_CompetitiveMutualConsent(t *testing.T) {
	h := newHarness(t, 4)

	h.setRating(0, 1000)
	h.setRating(1, 1000)
	h.setRating(2, 1070)
	h.setRating(3, 1070)

	lobbyA := h.formCompetitiveLobby(0, 1)
	lobbyB := h.formCompetitiveLobby(2, 3)

	h.send(0, events.QueueLobby{LobbyID: lobbyA})
	h.drainAll()
	h.send(2, events.QueueLobby{LobbyID: lobbyB})
	h.drainAll()

	ten := 10
	h.send(2, events.CheckMatch{LobbyID: lobbyB, Threshold: &ten})
	got := h.eps[2].drain()
	require.Len(t, got, 1)
	_, notFound := got[0].(events.MatchNotFound)
	require.True(t, notFound, "B's window [1060,1080] must not intersect A's stored window [1000,1000]")

	fifty := 50
	h.send(0, events.CheckMatch{LobbyID: lobbyA, Threshold: &fifty})
	got = h.eps[0].drain()
	require.Len(t, got, 1)
	_, notFound = got[0].(events.MatchNotFound)
	require.True(t, notFound, "A's window [950,1050] must not intersect B's own window [1060,1080]")

	sixty := 60
	h.send(2, events.CheckMatch{LobbyID: lobbyB, Threshold: &sixty})
	for i := 0; i < 2; i++ {
		got := h.eps[i].drain()
		require.Len(t, got, 1)
		mf, ok := got[0].(events.MatchFound)
		require.True(t, ok)
		require.Equal(t, lobbyB, mf.Opponent.LobbyID)
	}
	for i := 2; i < 4; i++ {
		got := h.eps[i].drain()
		require.Len(t, got, 1)
		mf, ok := got[0].(events.MatchFound)
		require.True(t, ok)
		require.Equal(t, lobbyA, mf.Opponent.LobbyID)
	}
}

func TestScenario_DeleteLobbyWhileQueueingRejected(t *testing.T) {
	h := newHarness(t, 2)
	lobbyID := h.formCasualLobby(0, 1)
	h.send(0, events.QueueLobby{LobbyID: lobbyID})
	h.drainAll()

	h.send(0, events.DeleteLobby{LobbyID: lobbyID})
	got := h.eps[0].drain()
	require.Len(t, got, 1)
	errEv, ok := got[0].(events.Error)
	require.True(t, ok)
	require.Equal(t, string(ErrKindLobbyDelete), errEv.Kind)

	info, err := h.coord.lobbies.Get(lobbyID)
	require.NoError(t, err)
	require.Equal(t, core.StatusQueueing, info.Status)
}

func (h *harness) formCasualLobby(leaderIdx, joinerIdx int) core.LobbyID {
	h.send(leaderIdx, events.CreateLobby{Params: core.LobbyParams{Name: "L", Visibility: core.VisibilityPublic, Region: core.RegionNA, Mode: core.ModeCasual}})
	created := h.eps[leaderIdx].drain()
	lc := created[0].(events.LobbyCreated)
	h.send(joinerIdx, events.JoinLobby{LobbyID: lc.Lobby.LobbyID})
	h.eps[leaderIdx].drain()
	h.eps[joinerIdx].drain()
	return lc.Lobby.LobbyID
}

func (h *harness) formCompetitiveLobby(leaderIdx, joinerIdx int) core.LobbyID {
	h.send(leaderIdx, events.CreateLobby{Params: core.LobbyParams{Name: "L", Visibility: core.VisibilityPublic, Region: core.RegionNA, Mode: core.ModeCompetitive}})
	created := h.eps[leaderIdx].drain()
	lc := created[0].(events.LobbyCreated)
	h.send(joinerIdx, events.JoinLobby{LobbyID: lc.Lobby.LobbyID})
	h.eps[leaderIdx].drain()
	h.eps[joinerIdx].drain()
	return lc.Lobby.LobbyID
}

// setRating edits a not-yet-lobbied player's rating, used to control a
// competitive lobby's average_rating ahead of queueing it.
func (h *harness) setRating(idx, rating int) {
	h.send(idx, events.EditPlayer{Player: core.Player{PlayerID: h.ids[idx], Rating: rating}})
	h.eps[idx].drain()
}

func (h *harness) drainAll() {
	for _, ep := range h.eps {
		ep.drain()
	}
}
