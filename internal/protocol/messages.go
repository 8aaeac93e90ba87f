// Package protocol defines the newline-delimited JSON wire format shared
// by the game server and its clients. Every message is one line holding
// an envelope of {"type": ..., "data": ...}.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

// Inbound message types (client -> server).
const (
	TypeUsernameSet     = "username_set"
	TypeMove            = "move"
	TypeChat            = "chat"
	TypeRematchRequest  = "rematch_request"
	TypeRematchDeclined = "rematch_declined"
	TypeRematchStart    = "rematch_start"
)

// Outbound message types (server -> client). Chat and the rematch types
// are relayed under the same names.
const (
	TypeWait                 = "wait"
	TypeGameStart            = "game_start"
	TypeUpdateBoard          = "update_board"
	TypeYourTurn             = "your_turn"
	TypeWaitTurn             = "wait_turn"
	TypeGameOver             = "game_over"
	TypeError                = "error"
	TypeOpponentDisconnected = "opponent_disconnected"
)

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewMessage - wraps a payload into the wire envelope.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	return &Message{Type: msgType, Data: data}, nil
}

type UsernamePayload struct {
	Username string `json:"username"`
}

type MovePayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type ChatPayload struct {
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

type WaitPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// GameStartPayload and UpdateBoardPayload hold the board by value: the
// snapshot is taken while the session lock is held, the send happens after
// it is released.
type GameStartPayload struct {
	Symbol       string       `json:"symbol"`
	IsTurn       bool         `json:"is_turn"`
	Board        entity.Board `json:"board"`
	OpponentName string       `json:"opponent_name"`
}

type UpdateBoardPayload struct {
	Board    entity.Board `json:"board"`
	LastMove *entity.Move `json:"last_move"`
}

// GameOverPayload carries a tri-state winner flag: true for the winner,
// false for the loser, null for a draw.
type GameOverPayload struct {
	Winner  *bool  `json:"winner"`
	Message string `json:"message"`
}

type OpponentDisconnectedPayload struct {
	Message string `json:"message"`
}

// EmptyPayload is used by the no-argument notifications (your_turn,
// wait_turn and the rematch votes).
type EmptyPayload struct{}
