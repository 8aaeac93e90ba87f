package tcp

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/protocol"
	"github.com/rocketscienceinc/caro-backend/internal/usecase"
)

func (that *Server) handleUsernameSet(playerID string, data json.RawMessage) ([]usecase.Event, error) {
	var payload protocol.UsernamePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal username payload: %w", err)
	}

	return that.game.SetUsername(playerID, payload.Username), nil
}

func (that *Server) handleMove(playerID string, data json.RawMessage) ([]usecase.Event, error) {
	var payload protocol.MovePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal move payload: %w", err)
	}

	return that.game.MakeMove(playerID, payload.Row, payload.Col), nil
}

func (that *Server) handleChat(playerID string, data json.RawMessage) ([]usecase.Event, error) {
	var payload protocol.ChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat payload: %w", err)
	}

	return that.game.SendChat(playerID, payload.Message), nil
}

func (that *Server) handleRematchRequest(playerID string, _ json.RawMessage) ([]usecase.Event, error) {
	return that.game.RequestRematch(playerID), nil
}

func (that *Server) handleRematchDeclined(playerID string, _ json.RawMessage) ([]usecase.Event, error) {
	return that.game.DeclineRematch(playerID), nil
}

// handleRematchStart - clients echo rematch_start back; it is accepted and
// ignored.
func (that *Server) handleRematchStart(string, json.RawMessage) ([]usecase.Event, error) {
	return nil, nil
}
