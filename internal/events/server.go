package events

import (
	"encoding/json"
	"fmt"

	"github.com/matchforge/gamesync/internal/core"
)

// Outbound ServerEvent type discriminators, named exactly as spec.md §6.
// Error is new: spec.md §9's open question on error propagation is resolved
// in favor of emitting it, so the client can observe a rejected request
// instead of the request silently vanishing.
const (
	TypeConnected     = "Connected"
	TypeUserMessage   = "UserMessage"
	TypeSelfPlayer    = "SelfPlayer"
	TypeNewPlayer     = "NewPlayer"
	TypeLobbyCreated  = "LobbyCreated"
	TypeLobbyJoined   = "LobbyJoined"
	TypeLobbyDeleted  = "LobbyDeleted"
	TypeLobbyLeft     = "LobbyLeft"
	TypeLobbyInvited  = "LobbyInvited"
	TypePublicLobbies = "PublicLobbies"
	TypePlayerEdited  = "PlayerEdited"
	TypeLobbyMessage  = "LobbyMessage"
	TypeLobbyQueued   = "LobbyQueued"
	TypeMatchFound    = "MatchFound"
	TypeMatchNotFound = "MatchNotFound"
	TypeQueueStopped  = "QueueStopped"
	TypeLeftGame      = "LeftGame"
	TypeLobbyInfo     = "LobbyInfo"
	TypeError         = "Error"
)

// ServerEvent is the decoded form of one outbound frame.
type ServerEvent interface {
	serverEvent()
	wireType() string
}

type Connected struct{}
type UserMessage struct {
	From    core.PlayerID
	Message string
}
type SelfPlayer struct{ ID string }
type NewPlayer struct{ ID string }
type LobbyCreated struct{ Lobby core.Lobby }
type LobbyJoined struct {
	PlayerID core.PlayerID
	LobbyID  core.LobbyID
}
type LobbyDeleted struct{ LobbyID core.LobbyID }
type LobbyLeft struct {
	PlayerID core.PlayerID
	LobbyID  core.LobbyID
}
type LobbyInvited struct{ LobbyID core.LobbyID }
type PublicLobbies struct{ Lobbies []core.Lobby }
type PlayerEdited struct{ PlayerID core.PlayerID }
type LobbyMessage struct {
	From    core.PlayerID
	Message string
}
type LobbyQueued struct{ LobbyID core.LobbyID }
type MatchFound struct{ Opponent core.Lobby }
type MatchNotFound struct{}
type QueueStopped struct{ LobbyID core.LobbyID }
type LeftGame struct{ LobbyID core.LobbyID }
type LobbyInfo struct{ Lobby core.Lobby }

// Error is the ADDED outbound variant (spec.md §9 open question, resolved):
// Kind names one of the error kinds from spec.md §7; Detail is a short
// human-readable elaboration, never sensitive data.
type Error struct {
	Kind   string
	Detail string
}

func (Connected) serverEvent()     {}
func (UserMessage) serverEvent()   {}
func (SelfPlayer) serverEvent()    {}
func (NewPlayer) serverEvent()     {}
func (LobbyCreated) serverEvent()  {}
func (LobbyJoined) serverEvent()   {}
func (LobbyDeleted) serverEvent()  {}
func (LobbyLeft) serverEvent()     {}
func (LobbyInvited) serverEvent()  {}
func (PublicLobbies) serverEvent() {}
func (PlayerEdited) serverEvent()  {}
func (LobbyMessage) serverEvent()  {}
func (LobbyQueued) serverEvent()   {}
func (MatchFound) serverEvent()    {}
func (MatchNotFound) serverEvent() {}
func (QueueStopped) serverEvent()  {}
func (LeftGame) serverEvent()      {}
func (LobbyInfo) serverEvent()     {}
func (Error) serverEvent()         {}

func (Connected) wireType() string     { return TypeConnected }
func (UserMessage) wireType() string   { return TypeUserMessage }
func (SelfPlayer) wireType() string    { return TypeSelfPlayer }
func (NewPlayer) wireType() string     { return TypeNewPlayer }
func (LobbyCreated) wireType() string  { return TypeLobbyCreated }
func (LobbyJoined) wireType() string   { return TypeLobbyJoined }
func (LobbyDeleted) wireType() string  { return TypeLobbyDeleted }
func (LobbyLeft) wireType() string     { return TypeLobbyLeft }
func (LobbyInvited) wireType() string  { return TypeLobbyInvited }
func (PublicLobbies) wireType() string { return TypePublicLobbies }
func (PlayerEdited) wireType() string  { return TypePlayerEdited }
func (LobbyMessage) wireType() string  { return TypeLobbyMessage }
func (LobbyQueued) wireType() string   { return TypeLobbyQueued }
func (MatchFound) wireType() string    { return TypeMatchFound }
func (MatchNotFound) wireType() string { return TypeMatchNotFound }
func (QueueStopped) wireType() string  { return TypeQueueStopped }
func (LeftGame) wireType() string      { return TypeLeftGame }
func (LobbyInfo) wireType() string     { return TypeLobbyInfo }
func (Error) wireType() string         { return TypeError }

// EncodeServer serializes a ServerEvent into its wire envelope, the
// counterpart of DecodeServer.
func EncodeServer(ev ServerEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("events: encode payload: %w", err)
	}
	env := Envelope{Type: ev.wireType(), Data: data}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("events: encode envelope: %w", err)
	}
	return out, nil
}

// DecodeServer parses a raw outbound frame into its typed ServerEvent. A
// reference client (or a test standing in for one) uses this as the
// counterpart to EncodeServer.
func DecodeServer(raw []byte) (ServerEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("events: decode envelope: %w", err)
	}

	switch env.Type {
	case TypeConnected:
		return Connected{}, nil
	case TypeUserMessage:
		var v UserMessage
		return v, unmarshalData(env.Data, &v)
	case TypeSelfPlayer:
		var v SelfPlayer
		return v, unmarshalData(env.Data, &v)
	case TypeNewPlayer:
		var v NewPlayer
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyCreated:
		var v LobbyCreated
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyJoined:
		var v LobbyJoined
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyDeleted:
		var v LobbyDeleted
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyLeft:
		var v LobbyLeft
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyInvited:
		var v LobbyInvited
		return v, unmarshalData(env.Data, &v)
	case TypePublicLobbies:
		var v PublicLobbies
		return v, unmarshalData(env.Data, &v)
	case TypePlayerEdited:
		var v PlayerEdited
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyMessage:
		var v LobbyMessage
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyQueued:
		var v LobbyQueued
		return v, unmarshalData(env.Data, &v)
	case TypeMatchFound:
		var v MatchFound
		return v, unmarshalData(env.Data, &v)
	case TypeMatchNotFound:
		return MatchNotFound{}, nil
	case TypeQueueStopped:
		var v QueueStopped
		return v, unmarshalData(env.Data, &v)
	case TypeLeftGame:
		var v LeftGame
		return v, unmarshalData(env.Data, &v)
	case TypeLobbyInfo:
		var v LobbyInfo
		return v, unmarshalData(env.Data, &v)
	case TypeError:
		var v Error
		return v, unmarshalData(env.Data, &v)
	default:
		return nil, fmt.Errorf("events: unknown server event type %q", env.Type)
	}
}
