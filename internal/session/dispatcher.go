package session

import (
	"github.com/charmbracelet/log"

	"github.com/matchforge/gamesync/internal/core"
	"github.com/matchforge/gamesync/internal/events"
	"github.com/matchforge/gamesync/internal/identity"
)

// Dispatcher is the three-surface fan-out described in spec.md §4.6. It
// holds only a read-only reference to the identity registry, matching
// spec.md §5's shared-resource policy.
type Dispatcher struct {
	identity *identity.Registry
	logger   *log.Logger
}

// NewDispatcher builds a dispatcher over the given identity registry.
func NewDispatcher(idRegistry *identity.Registry, logger *log.Logger) *Dispatcher {
	return &Dispatcher{identity: idRegistry, logger: logger}
}

// SendTo delivers ev to a single player, if connected. A resolve miss is
// dropped silently; a transport send failure is logged as SendError and
// swallowed — per spec.md §4.6, a failed send must never abort the
// caller's request.
func (d *Dispatcher) SendTo(playerID core.PlayerID, ev events.ServerEvent) {
	ep, ok := d.identity.ResolvePlayer(playerID)
	if !ok {
		return
	}
	d.write(ep, ev)
}

// SendToLobby delivers ev to every member of lobby, in player order.
func (d *Dispatcher) SendToLobby(lobby core.Lobby, ev events.ServerEvent) {
	payload, err := events.EncodeServer(ev)
	if err != nil {
		d.logger.Error("encode outbound event", "error", err)
		return
	}
	for _, playerID := range lobby.Players {
		ep, ok := d.identity.ResolvePlayer(playerID)
		if !ok {
			continue
		}
		d.writeEncoded(ep, payload)
	}
}

// SendToAllExcept fans ev out to every connected endpoint except sender.
func (d *Dispatcher) SendToAllExcept(sender core.PlayerID, ev events.ServerEvent) {
	payload, err := events.EncodeServer(ev)
	if err != nil {
		d.logger.Error("encode outbound event", "error", err)
		return
	}
	for _, ep := range d.identity.AllEndpoints() {
		id, ok := d.identity.ResolveEndpoint(ep)
		if ok && id == sender {
			continue
		}
		d.writeEncoded(ep, payload)
	}
}

func (d *Dispatcher) write(ep identity.Endpoint, ev events.ServerEvent) {
	payload, err := events.EncodeServer(ev)
	if err != nil {
		d.logger.Error("encode outbound event", "error", err)
		return
	}
	d.writeEncoded(ep, payload)
}

func (d *Dispatcher) writeEncoded(ep identity.Endpoint, payload []byte) {
	if err := ep.Send(payload); err != nil {
		d.logger.Warn("send failed", "kind", ErrKindSend, "remote", ep.RemoteAddr(), "error", err)
	}
}
