// Package session is the session coordinator and event dispatcher from
// spec.md §4.5–§4.6: it resolves inbound requests to a player identity,
// applies the lobby/queue state machine, and fans out notifications.
//
// Grounded on internal/multiplayer/coordinator.go: a single
// goroutine drains a buffered channel (processMessages/handleMessage),
// callers push work through submit, which blocks until the inbox has room
// or the coordinator is stopped, and Start/Stop bracket the
// goroutine's lifetime. The per-request-type handlers are transcribed from
// original_source/src/networking.rs's match arms onto that same loop.
package session

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matchforge/gamesync/internal/core"
	"github.com/matchforge/gamesync/internal/events"
	"github.com/matchforge/gamesync/internal/identity"
	"github.com/matchforge/gamesync/internal/lobby"
	"github.com/matchforge/gamesync/internal/player"
	"github.com/matchforge/gamesync/internal/queue"
)

// Config tunes the coordinator's single knob from spec.md §6:
// ServerParams.player_count, the fixed per-lobby capacity.
type Config struct {
	LobbySize int
}

// DefaultConfig returns the two-player lobby size used throughout spec.md's
// end-to-end scenarios.
func DefaultConfig() Config {
	return Config{LobbySize: 2}
}

type inboundMsg interface{ inbound() }

type connectMsg struct{ endpoint identity.Endpoint }
type disconnectMsg struct{ endpoint identity.Endpoint }
type clientMsg struct {
	endpoint identity.Endpoint
	event    events.ClientEvent
}
type broadcastNewPlayerMsg struct {
	playerID core.PlayerID
	idStr    string
}

func (connectMsg) inbound()           {}
func (disconnectMsg) inbound()        {}
func (clientMsg) inbound()            {}
func (broadcastNewPlayerMsg) inbound() {}

// Coordinator is the single owner of every registry and queue; per
// spec.md §5 it processes one inbound message to completion before the
// next begins, so none of its own fields need a lock even though the
// registries underneath are themselves mutex-guarded for direct test
// access.
type Coordinator struct {
	cfg Config

	identity *identity.Registry
	players  *player.Registry
	lobbies  *lobby.Registry
	queues   *queue.Engine
	dispatch *Dispatcher
	logger   *log.Logger

	inbox chan inboundMsg
	done  chan struct{}
}

// NewCoordinator wires a coordinator over fresh registries and queues.
func NewCoordinator(cfg Config, logger *log.Logger) *Coordinator {
	idRegistry := identity.New()
	return &Coordinator{
		cfg:      cfg,
		identity: idRegistry,
		players:  player.New(),
		lobbies:  lobby.New(),
		queues:   queue.NewEngine(),
		dispatch: NewDispatcher(idRegistry, logger),
		logger:   logger,
		inbox:    make(chan inboundMsg, 256),
		done:     make(chan struct{}),
	}
}

// Start begins the coordinator's single processing goroutine.
func (c *Coordinator) Start() {
	go c.run()
}

// Stop ends the processing goroutine. Safe to call once.
func (c *Coordinator) Stop() {
	close(c.done)
}

func (c *Coordinator) submit(msg inboundMsg) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) run() {
	for {
		select {
		case msg := <-c.inbox:
			c.handle(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handle(msg inboundMsg) {
	switch m := msg.(type) {
	case connectMsg:
		c.handleConnect(m.endpoint)
	case disconnectMsg:
		c.handleDisconnect(m.endpoint)
	case clientMsg:
		c.handleClientEvent(m.endpoint, m.event)
	case broadcastNewPlayerMsg:
		c.dispatch.SendToAllExcept(m.playerID, events.NewPlayer{ID: m.idStr})
	}
}

// HandleConnect registers a newly accepted endpoint. It is the transport
// layer's entry point on accept and is safe to call from any goroutine.
func (c *Coordinator) HandleConnect(endpoint identity.Endpoint) {
	c.submit(connectMsg{endpoint: endpoint})
}

// HandleDisconnect runs the cleanup routine for a peer the transport
// reports as gone.
func (c *Coordinator) HandleDisconnect(endpoint identity.Endpoint) {
	c.submit(disconnectMsg{endpoint: endpoint})
}

// HandleInbound decodes one raw frame and, on success, submits it for
// processing. A decode failure is a ParseError: spec.md §7 says it is
// logged and the payload discarded, the connection left open — so it
// never reaches the coordinator loop at all.
func (c *Coordinator) HandleInbound(endpoint identity.Endpoint, raw []byte) {
	ev, err := events.DecodeClient(raw)
	if err != nil {
		c.logger.Warn("discarding unparsable frame", "kind", ErrKindParse, "remote", endpoint.RemoteAddr(), "error", err)
		return
	}
	c.submit(clientMsg{endpoint: endpoint, event: ev})
}

func (c *Coordinator) handleConnect(endpoint identity.Endpoint) {
	playerID := c.identity.Attach(endpoint)
	c.players.Add(playerID, 0)

	idStr := playerID.String()
	c.dispatch.SendTo(playerID, events.SelfPlayer{ID: idStr})

	// Broadcasting NewPlayer happens ~100ms later (spec.md §6/§9) without
	// blocking this goroutine or the coordinator loop: the delay is timed
	// on its own goroutine and the actual fan-out is re-submitted so it
	// still runs serialized with every other inbound message.
	go func() {
		time.Sleep(100 * time.Millisecond)
		c.submit(broadcastNewPlayerMsg{playerID: playerID, idStr: idStr})
	}()
}

func (c *Coordinator) handleDisconnect(endpoint identity.Endpoint) {
	playerID, ok := c.identity.ResolveEndpoint(endpoint)
	if !ok {
		return
	}

	_, currentLobby, err := c.players.Get(playerID)
	if err == nil && currentLobby != nil {
		c.leaveLobby(playerID, *currentLobby, false)
	}

	c.players.Remove(playerID)
	c.identity.Detach(endpoint)
}

func (c *Coordinator) handleClientEvent(endpoint identity.Endpoint, ev events.ClientEvent) {
	playerID, ok := c.identity.ResolveEndpoint(endpoint)
	if !ok {
		c.logger.Warn("client event from unresolved endpoint", "kind", ErrKindUserNotFound, "remote", endpoint.RemoteAddr())
		return
	}

	if err := c.dispatchClientEvent(playerID, ev); err != nil {
		var reqErr *RequestError
		if ok := asRequestError(err, &reqErr); ok {
			c.logger.Warn("request rejected", "kind", reqErr.Kind, "player", playerID, "error", reqErr.Cause)
			c.dispatch.SendTo(playerID, events.Error{Kind: string(reqErr.Kind), Detail: reqErr.Error()})
			return
		}
		c.logger.Error("unexpected request error", "player", playerID, "error", err)
	}
}

func asRequestError(err error, target **RequestError) bool {
	re, ok := err.(*RequestError)
	if ok {
		*target = re
	}
	return ok
}
