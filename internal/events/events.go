// Package events defines the named messages exchanged with race clients.
// The session coordinator emits outbound events through a broadcast sink;
// the gateway decodes inbound client messages into the same vocabulary.
package events

import (
	"encoding/json"

	"github.com/duelgrid/server/internal/physics"
)

// Type names an outbound room event.
type Type string

const (
	TypeJoinResult      Type = "joinResult"
	TypePlayerJoined    Type = "playerJoined"
	TypePlayerLeft      Type = "playerLeft"
	TypeCountdownUpdate Type = "countdownUpdate"
	TypeRaceStart       Type = "raceStart"
	TypeGameStateUpdate Type = "gameStateUpdate"
	TypeRematchAccepted Type = "rematchAccepted"
)

// Message is the wire envelope for outbound events. Data carries the
// event-specific payload: a PlayerJoinedPayload, a bare integer for
// countdownUpdate, a full race state snapshot for gameStateUpdate, or
// nothing at all for raceStart and rematchAccepted.
type Message struct {
	Type Type `json:"type"`
	Data any  `json:"data,omitempty"`
}

// PlayerJoinedPayload announces a successful join to everyone in the room.
type PlayerJoinedPayload struct {
	PlayerID string   `json:"playerId"`
	Players  []string `json:"players"`
}

// PlayerLeftPayload announces a departure with the surviving member list.
type PlayerLeftPayload struct {
	Players            []string `json:"players"`
	DisconnectedPlayer string   `json:"disconnectedPlayer"`
}

// Inbound client message types.
const (
	ClientJoin    = "join"
	ClientInput   = "input"
	ClientRematch = "rematch"
)

// ClientMessage is a decoded inbound message from a player's socket.
type ClientMessage struct {
	Type   string         `json:"type"`
	RoomID string         `json:"roomId"`
	Input  *physics.Input `json:"input,omitempty"`
}

// ParseClientMessage decodes raw socket bytes into a ClientMessage.
func ParseClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	err := json.Unmarshal(raw, &msg)
	return msg, err
}
