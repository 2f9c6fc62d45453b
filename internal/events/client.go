// Package events defines the wire-level ClientEvent/ServerEvent vocabulary
// from spec.md §6, encoded as a {type, data} envelope and dispatched by
// type switch — the same shape netrek-web's ClientMessage/ServerMessage
// pair uses (other_examples/..._lab1702-netrek-web__server-websocket.go.go),
// adapted from its string message-type constants to a closed set of Go
// structs so the coordinator can type-switch on the decoded value instead
// of re-parsing raw JSON per handler.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/matchforge/gamesync/internal/core"
)

// Envelope is the transport-level frame: a discriminator plus its
// variant-specific payload, mirroring the original Rust implementation's
// externally-tagged serde enum (networking.rs's ClientEvent/ServerEvent).
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound ClientEvent type discriminators, named exactly as spec.md §6.
const (
	TypeBroadcast         = "Broadcast"
	TypeSendTo            = "SendTo"
	TypeCreateLobby       = "CreateLobby"
	TypeJoinLobby         = "JoinLobby"
	TypeDeleteLobby       = "DeleteLobby"
	TypeLeaveLobby        = "LeaveLobby"
	TypeInviteLobby       = "InviteLobby"
	TypeGetPublicLobbies  = "GetPublicLobbies"
	TypeEditPlayer        = "EditPlayer"
	TypeMessageLobby      = "MessageLobby"
	TypeQueueLobby        = "QueueLobby"
	TypeCheckMatch        = "CheckMatch"
	TypeStopQueue         = "StopQueue"
	TypeLeaveGameAsLobby  = "LeaveGameAsLobby"
	TypeGetLobbyInfo      = "GetLobbyInfo"
)

// ClientEvent is the decoded form of one inbound frame. The sender is never
// part of the payload; it is always resolved from the originating endpoint
// (spec.md §6).
type ClientEvent interface {
	clientEvent()
	wireType() string
}

type Broadcast struct{ Message string }
type SendTo struct {
	To      string
	Message string
}
type CreateLobby struct{ Params core.LobbyParams }
type JoinLobby struct{ LobbyID core.LobbyID }
type DeleteLobby struct{ LobbyID core.LobbyID }
type LeaveLobby struct{ LobbyID core.LobbyID }
type InviteLobby struct {
	LobbyID core.LobbyID
	Invitee core.PlayerID
}
type GetPublicLobbies struct{ Region core.Region }
type EditPlayer struct{ Player core.Player }
type MessageLobby struct {
	LobbyID core.LobbyID
	Message string
}
type QueueLobby struct{ LobbyID core.LobbyID }

// CheckMatch's Threshold is nil when the client omits it — spec.md's
// `threshold?` — and the session coordinator is responsible for choosing a
// default in that case.
type CheckMatch struct {
	LobbyID   core.LobbyID
	Threshold *int
}
type StopQueue struct{ LobbyID core.LobbyID }
type LeaveGameAsLobby struct{ LobbyID core.LobbyID }
type GetLobbyInfo struct{ LobbyID core.LobbyID }

func (Broadcast) clientEvent()        {}
func (SendTo) clientEvent()           {}
func (CreateLobby) clientEvent()      {}
func (JoinLobby) clientEvent()        {}
func (DeleteLobby) clientEvent()      {}
func (LeaveLobby) clientEvent()       {}
func (InviteLobby) clientEvent()      {}
func (GetPublicLobbies) clientEvent() {}
func (EditPlayer) clientEvent()       {}
func (MessageLobby) clientEvent()     {}
func (QueueLobby) clientEvent()       {}
func (CheckMatch) clientEvent()       {}
func (StopQueue) clientEvent()        {}
func (LeaveGameAsLobby) clientEvent() {}
func (GetLobbyInfo) clientEvent()     {}

func (Broadcast) wireType() string         { return TypeBroadcast }
func (SendTo) wireType() string            { return TypeSendTo }
func (CreateLobby) wireType() string       { return TypeCreateLobby }
func (JoinLobby) wireType() string         { return TypeJoinLobby }
func (DeleteLobby) wireType() string       { return TypeDeleteLobby }
func (LeaveLobby) wireType() string        { return TypeLeaveLobby }
func (InviteLobby) wireType() string       { return TypeInviteLobby }
func (GetPublicLobbies) wireType() string  { return TypeGetPublicLobbies }
func (EditPlayer) wireType() string        { return TypeEditPlayer }
func (MessageLobby) wireType() string      { return TypeMessageLobby }
func (QueueLobby) wireType() string        { return TypeQueueLobby }
func (CheckMatch) wireType() string        { return TypeCheckMatch }
func (StopQueue) wireType() string         { return TypeStopQueue }
func (LeaveGameAsLobby) wireType() string  { return TypeLeaveGameAsLobby }
func (GetLobbyInfo) wireType() string      { return TypeGetLobbyInfo }

// EncodeClient serializes a ClientEvent into its wire envelope. A live
// client implementation (or a test standing in for one) uses this as the
// counterpart to DecodeClient.
func EncodeClient(ev ClientEvent) ([]byte, error) {
	// CreateLobby and EditPlayer carry their inner value as the whole
	// payload, the shape DecodeClient reads back.
	var payload any = ev
	switch e := ev.(type) {
	case CreateLobby:
		payload = e.Params
	case EditPlayer:
		payload = e.Player
	}
	data, err := json.Marshal(payload)
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

// DecodeClient parses a raw inbound frame into its typed ClientEvent. The
// returned error is logged as a ParseError by the session coordinator's
// HandleInbound (spec.md §7);
// the caller must not close the connection on it.
func DecodeClient(raw []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("events: decode envelope: %w", err)
	}

	switch env.Type {
	case TypeBroadcast:
		var v struct{ Message string }
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return Broadcast{Message: v.Message}, nil
	case TypeSendTo:
		var v struct {
			To      string
			Message string
		}
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return SendTo{To: v.To, Message: v.Message}, nil
	case TypeCreateLobby:
		var v core.LobbyParams
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return CreateLobby{Params: v}, nil
	case TypeJoinLobby:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return JoinLobby{LobbyID: id}, nil
	case TypeDeleteLobby:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return DeleteLobby{LobbyID: id}, nil
	case TypeLeaveLobby:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return LeaveLobby{LobbyID: id}, nil
	case TypeInviteLobby:
		var v struct {
			LobbyID core.LobbyID
			Invitee core.PlayerID
		}
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return InviteLobby{LobbyID: v.LobbyID, Invitee: v.Invitee}, nil
	case TypeGetPublicLobbies:
		var v struct{ Region core.Region }
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return GetPublicLobbies{Region: v.Region}, nil
	case TypeEditPlayer:
		var v core.Player
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return EditPlayer{Player: v}, nil
	case TypeMessageLobby:
		var v struct {
			LobbyID core.LobbyID
			Message string
		}
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return MessageLobby{LobbyID: v.LobbyID, Message: v.Message}, nil
	case TypeQueueLobby:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return QueueLobby{LobbyID: id}, nil
	case TypeCheckMatch:
		var v struct {
			LobbyID   core.LobbyID
			Threshold *int
		}
		if err := unmarshalData(env.Data, &v); err != nil {
			return nil, err
		}
		return CheckMatch{LobbyID: v.LobbyID, Threshold: v.Threshold}, nil
	case TypeStopQueue:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return StopQueue{LobbyID: id}, nil
	case TypeLeaveGameAsLobby:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return LeaveGameAsLobby{LobbyID: id}, nil
	case TypeGetLobbyInfo:
		id, err := decodeLobbyID(env.Data)
		if err != nil {
			return nil, err
		}
		return GetLobbyInfo{LobbyID: id}, nil
	default:
		return nil, fmt.Errorf("events: unknown client event type %q", env.Type)
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("events: missing data payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("events: decode payload: %w", err)
	}
	return nil
}

func decodeLobbyID(data json.RawMessage) (core.LobbyID, error) {
	var v struct {
		LobbyID core.LobbyID
	}
	if err := unmarshalData(data, &v); err != nil {
		return core.LobbyID{}, err
	}
	return v.LobbyID, nil
}
