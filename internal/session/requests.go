package session

import (
	"github.com/google/uuid"

	"github.com/matchforge/gamesync/internal/core"
	"github.com/matchforge/gamesync/internal/events"
)

// dispatchClientEvent applies one decoded ClientEvent for the resolved
// sender, transcribed from original_source/src/networking.rs's match over
// ClientEvent and spec.md §4.5's per-request-type table.
func (c *Coordinator) dispatchClientEvent(sender core.PlayerID, ev events.ClientEvent) error {
	switch e := ev.(type) {
	case events.Broadcast:
		c.dispatch.SendToAllExcept(sender, events.UserMessage{From: sender, Message: e.Message})
		return nil
	case events.SendTo:
		return c.handleSendTo(sender, e)
	case events.CreateLobby:
		return c.handleCreateLobby(sender, e)
	case events.JoinLobby:
		return c.handleJoinLobby(sender, e)
	case events.LeaveLobby:
		return c.handleLeaveLobbyRequest(sender, e)
	case events.DeleteLobby:
		return c.handleDeleteLobby(sender, e)
	case events.InviteLobby:
		return c.handleInviteLobby(sender, e)
	case events.GetPublicLobbies:
		c.dispatch.SendTo(sender, events.PublicLobbies{Lobbies: c.lobbies.ListPublic(e.Region)})
		return nil
	case events.EditPlayer:
		return c.handleEditPlayer(sender, e)
	case events.MessageLobby:
		return c.handleMessageLobby(sender, e)
	case events.QueueLobby:
		return c.handleQueueLobby(sender, e)
	case events.CheckMatch:
		return c.handleCheckMatch(sender, e)
	case events.StopQueue:
		return c.handleStopQueue(sender, e)
	case events.LeaveGameAsLobby:
		return c.handleLeaveGameAsLobby(sender, e)
	case events.GetLobbyInfo:
		return c.handleGetLobbyInfo(sender, e)
	default:
		return nil
	}
}

func (c *Coordinator) handleSendTo(sender core.PlayerID, e events.SendTo) error {
	target, err := uuid.Parse(e.To)
	if err != nil {
		return reqErr(ErrKindPlayerFind, err)
	}
	c.dispatch.SendTo(target, events.UserMessage{From: sender, Message: e.Message})
	return nil
}

func (c *Coordinator) handleCreateLobby(sender core.PlayerID, e events.CreateLobby) error {
	_, currentLobby, err := c.players.Get(sender)
	if err != nil {
		return reqErr(ErrKindUserNotFound, err)
	}
	if currentLobby != nil {
		return reqErr(ErrKindLobbyCreate, errAlreadyInLobby)
	}

	l := core.Lobby{
		LobbyID: core.NewID(),
		Params:  e.Params,
		Leader:  sender,
		Status:  core.StatusIdle,
		Players: []core.PlayerID{sender},
	}
	c.lobbies.Create(l)
	_ = c.players.SetLobby(sender, &l.LobbyID)

	c.dispatch.SendTo(sender, events.LobbyCreated{Lobby: l})
	return nil
}

func (c *Coordinator) handleJoinLobby(sender core.PlayerID, e events.JoinLobby) error {
	_, currentLobby, err := c.players.Get(sender)
	if err != nil {
		return reqErr(ErrKindUserNotFound, err)
	}
	if currentLobby != nil {
		return reqErr(ErrKindLobbyJoin, errAlreadyInLobby)
	}

	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if len(l.Players) >= c.cfg.LobbySize {
		return reqErr(ErrKindLobbyFull, nil)
	}

	l.Players = append(l.Players, sender)
	if err := c.lobbies.Update(l); err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	_ = c.players.SetLobby(sender, &l.LobbyID)

	c.dispatch.SendToLobby(l, events.LobbyJoined{PlayerID: sender, LobbyID: l.LobbyID})
	return nil
}

func (c *Coordinator) handleLeaveLobbyRequest(sender core.PlayerID, e events.LeaveLobby) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if !memberOf(l, sender) {
		return reqErr(ErrKindLobbyMembership, nil)
	}
	c.leaveLobby(sender, e.LobbyID, true)
	return nil
}

// leaveLobby implements spec.md §4.5's LeaveLobby body, shared with
// disconnect cleanup (notifySender distinguishes the two: when it is false,
// a departing non-leader is not sent its own LobbyLeft; disconnect cleanup
// runs before the endpoint is detached, so without the flag it would be).
func (c *Coordinator) leaveLobby(sender core.PlayerID, lobbyID core.LobbyID, notifySender bool) {
	l, err := c.lobbies.Get(lobbyID)
	if err != nil {
		return
	}

	if l.Leader == sender {
		c.destroyLobby(l)
		return
	}

	wasQueueing := l.Status == core.StatusQueueing
	if wasQueueing {
		_ = c.queues.Dequeue(l)
		l.Status = core.StatusIdle
	}

	l.Players = removePlayer(l.Players, sender)
	if err := c.lobbies.Update(l); err != nil {
		return
	}
	_ = c.players.SetLobby(sender, nil)

	if notifySender {
		c.dispatch.SendTo(sender, events.LobbyLeft{PlayerID: sender, LobbyID: lobbyID})
	}

	if wasQueueing {
		c.dispatch.SendToLobby(l, events.QueueStopped{LobbyID: lobbyID})
	}
	c.dispatch.SendToLobby(l, events.LobbyLeft{PlayerID: sender, LobbyID: lobbyID})
}

// destroyLobby removes l entirely. When it was Queueing, a QueueStopped is
// sent to every member first (spec.md §8 scenario 4 requires it for a
// leader disconnecting mid-queue). Only a leader's LeaveLobby or disconnect
// can reach this with status still Queueing — DeleteLobby requires Idle.
func (c *Coordinator) destroyLobby(l core.Lobby) {
	wasQueueing := l.Status == core.StatusQueueing
	if wasQueueing {
		_ = c.queues.Dequeue(l)
	}

	members := append([]core.PlayerID(nil), l.Players...)

	if wasQueueing {
		for _, member := range members {
			c.dispatch.SendTo(member, events.QueueStopped{LobbyID: l.LobbyID})
		}
	}
	for _, member := range members {
		_ = c.players.SetLobby(member, nil)
		c.dispatch.SendTo(member, events.LobbyLeft{PlayerID: member, LobbyID: l.LobbyID})
	}
	for _, member := range members {
		c.dispatch.SendTo(member, events.LobbyDeleted{LobbyID: l.LobbyID})
	}
	_ = c.lobbies.Delete(l.LobbyID)
}

func (c *Coordinator) handleDeleteLobby(sender core.PlayerID, e events.DeleteLobby) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if l.Leader != sender {
		return reqErr(ErrKindLobbyOwner, nil)
	}
	if l.Status != core.StatusIdle {
		return reqErr(ErrKindLobbyDelete, nil)
	}

	c.destroyLobby(l)
	return nil
}

func (c *Coordinator) handleInviteLobby(sender core.PlayerID, e events.InviteLobby) error {
	_, currentLobby, err := c.players.Get(sender)
	if err != nil {
		return reqErr(ErrKindUserNotFound, err)
	}
	if currentLobby == nil {
		return reqErr(ErrKindLobbyInvite, nil)
	}
	if *currentLobby != e.LobbyID {
		return reqErr(ErrKindLobbyCurInvite, nil)
	}

	c.dispatch.SendTo(e.Invitee, events.LobbyInvited{LobbyID: e.LobbyID})
	return nil
}

func (c *Coordinator) handleMessageLobby(sender core.PlayerID, e events.MessageLobby) error {
	_, currentLobby, err := c.players.Get(sender)
	if err != nil {
		return reqErr(ErrKindUserNotFound, err)
	}
	if currentLobby == nil {
		return reqErr(ErrKindLobbyPlayer, nil)
	}
	if *currentLobby != e.LobbyID {
		return reqErr(ErrKindLobbyMessage, nil)
	}

	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}

	c.dispatch.SendToLobby(l, events.LobbyMessage{From: sender, Message: e.Message})
	return nil
}

func (c *Coordinator) handleEditPlayer(sender core.PlayerID, e events.EditPlayer) error {
	err := c.players.Edit(sender, e.Player.Rating, func(lobbyID core.LobbyID) bool {
		l, err := c.lobbies.Get(lobbyID)
		return err == nil && l.Status == core.StatusIdle
	})
	if err != nil {
		return reqErr(ErrKindPlayerEdit, err)
	}

	c.dispatch.SendTo(sender, events.PlayerEdited{PlayerID: sender})
	return nil
}

func (c *Coordinator) handleQueueLobby(sender core.PlayerID, e events.QueueLobby) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if l.Leader != sender {
		return reqErr(ErrKindLobbyOwner, nil)
	}
	if l.Status != core.StatusIdle {
		return reqErr(ErrKindLobbyQueue, nil)
	}
	if len(l.Players) != c.cfg.LobbySize {
		return reqErr(ErrKindLobbySize, nil)
	}

	l.Status = core.StatusQueueing
	l.PlayerRatings = c.ratingsOf(l.Players)
	if err := c.lobbies.Update(l); err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if err := c.queues.Enqueue(l); err != nil {
		return reqErr(ErrKindLobbyQueue, err)
	}

	c.dispatch.SendToLobby(l, events.LobbyQueued{LobbyID: l.LobbyID})
	return nil
}

func (c *Coordinator) handleCheckMatch(sender core.PlayerID, e events.CheckMatch) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if l.Leader != sender {
		return reqErr(ErrKindLobbyOwner, nil)
	}
	if l.Status != core.StatusQueueing {
		return reqErr(ErrKindLobbyCheck, nil)
	}

	threshold := 0
	if e.Threshold != nil {
		threshold = *e.Threshold
	}

	// Invariant 7: queue_threshold refreshes on every CheckMatch from the
	// lobby's leader, in both the registry and the live queue entry, so a
	// waiting candidate's own window reflects its own latest threshold
	// rather than the requester's.
	l.QueueThreshold = threshold
	if err := c.lobbies.Update(l); err != nil {
		return reqErr(ErrKindLobbyCheck, err)
	}
	if err := c.queues.UpdateThreshold(l, threshold); err != nil {
		return reqErr(ErrKindLobbyCheck, err)
	}

	a, b, ok, err := c.queues.TryMatch(l)
	if err != nil {
		return reqErr(ErrKindLobbyCheck, err)
	}
	if !ok {
		c.dispatch.SendTo(sender, events.MatchNotFound{})
		return nil
	}

	c.finalizeMatch(a, b, threshold)
	return nil
}

// finalizeMatch implements spec.md §4.5's match finalization: both lobbies
// become Ingame, the requester's (a's) queue_threshold is overwritten with
// the winning threshold, and every member of each lobby learns the
// counterpart.
func (c *Coordinator) finalizeMatch(a, b core.Lobby, threshold int) {
	a.Status = core.StatusIngame
	a.QueueThreshold = threshold
	b.Status = core.StatusIngame

	_ = c.lobbies.Update(a)
	_ = c.lobbies.Update(b)

	c.dispatch.SendToLobby(a, events.MatchFound{Opponent: b})
	c.dispatch.SendToLobby(b, events.MatchFound{Opponent: a})
}

func (c *Coordinator) handleStopQueue(sender core.PlayerID, e events.StopQueue) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if l.Leader != sender {
		return reqErr(ErrKindLobbyOwner, nil)
	}
	if l.Status != core.StatusQueueing {
		return reqErr(ErrKindLobbyStop, nil)
	}

	_ = c.queues.Dequeue(l)
	l.Status = core.StatusIdle
	if err := c.lobbies.Update(l); err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}

	c.dispatch.SendToLobby(l, events.QueueStopped{LobbyID: l.LobbyID})
	return nil
}

func (c *Coordinator) handleLeaveGameAsLobby(sender core.PlayerID, e events.LeaveGameAsLobby) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	if l.Leader != sender {
		return reqErr(ErrKindLobbyOwner, nil)
	}
	if l.Status != core.StatusIngame {
		return reqErr(ErrKindLeaveGame, nil)
	}

	l.Status = core.StatusIdle
	if err := c.lobbies.Update(l); err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}

	c.dispatch.SendToLobby(l, events.LeftGame{LobbyID: l.LobbyID})
	return nil
}

func (c *Coordinator) handleGetLobbyInfo(sender core.PlayerID, e events.GetLobbyInfo) error {
	l, err := c.lobbies.Get(e.LobbyID)
	if err != nil {
		return reqErr(ErrKindLobbyFind, err)
	}
	c.dispatch.SendTo(sender, events.LobbyInfo{Lobby: l})
	return nil
}

func (c *Coordinator) ratingsOf(playerIDs []core.PlayerID) []int {
	ratings := make([]int, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, _, err := c.players.Get(id)
		if err != nil {
			continue
		}
		ratings = append(ratings, p.Rating)
	}
	return ratings
}

func memberOf(l core.Lobby, playerID core.PlayerID) bool {
	for _, p := range l.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

func removePlayer(players []core.PlayerID, target core.PlayerID) []core.PlayerID {
	out := make([]core.PlayerID, 0, len(players))
	for _, p := range players {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}
