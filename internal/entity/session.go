package entity

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// MoveOutcome classifies an accepted move.
type MoveOutcome int

const (
	MoveContinue MoveOutcome = iota
	MoveWin
	MoveDraw
)

type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Session is one match between exactly two players: a board, the turn
// owner, the last move and the rematch votes. All mutation happens under
// the GameManager lock; the session itself holds no locking.
type Session struct {
	ID       string
	Players  [2]*Player
	Board    *Board
	Turn     string
	LastMove *Move
	Status   string

	// MoveSeq increments on every accepted move and on restart, so a turn
	// timer armed for an older position can detect it is stale.
	MoveSeq int

	RematchRequests map[string]struct{}
	RematchDeclines map[string]struct{}
}

// NewSession - creates a session for two enrolled players. The starting
// player is picked by an unbiased coin flip and always plays X.
func NewSession(id string, first, second *Player) *Session {
	session := &Session{
		ID:      id,
		Players: [2]*Player{first, second},
	}
	session.reset()

	first.GameID = id
	second.GameID = id

	return session
}

// Restart - begins a fresh game under the same session identity: empty
// board, cleared votes, new coin flip for the first mover.
func (that *Session) Restart() {
	that.reset()
}

func (that *Session) reset() {
	that.Board = NewBoard()
	that.LastMove = nil
	that.Status = StatusOngoing
	that.MoveSeq++
	that.RematchRequests = make(map[string]struct{})
	that.RematchDeclines = make(map[string]struct{})

	firstMover := that.Players[rand.Intn(2)] //nolint: gosec // fairness, not security
	that.Turn = firstMover.ID
	firstMover.Mark = PlayerX
	that.Opponent(firstMover.ID).Mark = PlayerO
}

// MakeMove - applies the full move state machine for one placement. Any
// returned error leaves the session untouched.
func (that *Session) MakeMove(playerID string, row, col int) (MoveOutcome, error) {
	if that.IsFinished() {
		return 0, apperror.ErrGameFinished
	}

	if that.Turn != playerID {
		return 0, apperror.ErrNotYourTurn
	}

	player := that.playerByID(playerID)
	if player == nil {
		return 0, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	if err := that.Board.Place(row, col, player.Mark); err != nil {
		return 0, fmt.Errorf("failed to place symbol: %w", err)
	}

	that.LastMove = &Move{Row: row, Col: col}
	that.MoveSeq++

	if that.Board.IsWinningMove(row, col, player.Mark) {
		that.finish()
		return MoveWin, nil
	}

	if that.Board.IsFull() {
		that.finish()
		return MoveDraw, nil
	}

	that.Turn = that.Opponent(playerID).ID

	return MoveContinue, nil
}

// Forfeit - ends the game against the current turn owner. Used by the
// move timer.
func (that *Session) Forfeit() {
	that.finish()
}

func (that *Session) finish() {
	that.Status = StatusFinished
	that.Turn = ""
}

// RequestRematch - records a rematch vote and reports whether both
// participants have now requested one.
func (that *Session) RequestRematch(playerID string) bool {
	that.RematchRequests[playerID] = struct{}{}
	return len(that.RematchRequests) == len(that.Players)
}

// DeclineRematch - records a decline vote and reports whether both
// participants have now declined.
func (that *Session) DeclineRematch(playerID string) bool {
	that.RematchDeclines[playerID] = struct{}{}
	return len(that.RematchDeclines) == len(that.Players)
}

func (that *Session) HasPlayer(playerID string) bool {
	return that.playerByID(playerID) != nil
}

// Opponent - returns the other participant, or nil for an unknown ID.
func (that *Session) Opponent(playerID string) *Player {
	switch playerID {
	case that.Players[0].ID:
		return that.Players[1]
	case that.Players[1].ID:
		return that.Players[0]
	default:
		return nil
	}
}

func (that *Session) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Session) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Session) playerByID(playerID string) *Player {
	for _, player := range that.Players {
		if player.ID == playerID {
			return player
		}
	}

	return nil
}
