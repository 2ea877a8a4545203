package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeMoves     MessageType = "moves"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MovePayload carries a "from:to[=P]" move token.
type MovePayload struct {
	Move string `json:"move"`
}

// MovesRequest asks for the legal destinations of the piece on Square.
type MovesRequest struct {
	Square string `json:"square"`
}

// MovesPayload answers a MovesRequest.
type MovesPayload struct {
	Square       string   `json:"square"`
	Destinations []string `json:"destinations"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// NewMessage marshals payload into a message of type t.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}
