package apperror

import "errors"

var (
	ErrGameFinished    = errors.New("game is already finished")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrCellOutOfBounds = errors.New("cell is out of bounds")
	ErrNoOpponent      = errors.New("no opponent")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrGameNotFound    = errors.New("game not found")
)
