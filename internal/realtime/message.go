package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/tictactoe-rooms/internal/api/response"
	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// Envelope is the frame exchanged over the websocket in both directions
type Envelope struct {
	Event model.EventType `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds an envelope for the event
func Encode(event model.EventType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode parses an inbound frame
func Decode(message []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event")
	}
	return env, nil
}

// ConnectionPayload identifies a connection in connected, user-joined and user-left
type ConnectionPayload struct {
	ID string `json:"id"`
}

// PlayerInfoPayload announces a seat's player. RoomID is only set inbound.
type PlayerInfoPayload struct {
	RoomID   string `json:"roomId,omitempty"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Symbol   string `json:"symbol"`
}

// RoomPayload is the inbound body of make-move and game-restart.
// Any board sent by the client is ignored; peers get the committed state.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// MoveMadePayload carries the committed state after a move
type MoveMadePayload = response.GameState

// GameRestartedPayload carries the fresh board after a restart
type GameRestartedPayload struct {
	Board         []*string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
}

// ErrorPayload reports a rejected inbound message to its sender only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
