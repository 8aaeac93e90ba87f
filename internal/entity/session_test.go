package entity

import (
	"testing"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() (*Session, *Player, *Player) {
	alice := &Player{ID: "alice-id", Name: "alice"}
	bob := &Player{ID: "bob-id", Name: "bob"}

	return NewSession("alice-id:bob-id", alice, bob), alice, bob
}

// turnOrder returns the turn owner first.
func turnOrder(session *Session) (*Player, *Player) {
	waiter := session.Opponent(session.Turn)
	return session.Opponent(waiter.ID), waiter
}

func TestNewSession(t *testing.T) {
	// Given: a fresh session for two players
	session, alice, bob := newTestSession()

	// Then: both players are bound to the session
	assert.Equal(t, session.ID, alice.GameID)
	assert.Equal(t, session.ID, bob.GameID)
	assert.True(t, session.HasPlayer(alice.ID))
	assert.True(t, session.HasPlayer(bob.ID))
	assert.False(t, session.HasPlayer("stranger"))

	// And: the turn owner plays X, the opponent plays O
	mover, waiter := turnOrder(session)
	assert.Contains(t, []string{alice.ID, bob.ID}, mover.ID)
	assert.Equal(t, PlayerX, mover.Mark)
	assert.Equal(t, PlayerO, waiter.Mark)
	assert.NotEqual(t, mover.ID, waiter.ID)

	// And: the game is ongoing on an empty board
	assert.True(t, session.IsOngoing())
	assert.Nil(t, session.LastMove)
	assert.Equal(t, *NewBoard(), *session.Board)
}

func TestSession_Opponent(t *testing.T) {
	session, alice, bob := newTestSession()

	assert.Same(t, bob, session.Opponent(alice.ID))
	assert.Same(t, alice, session.Opponent(bob.ID))
	assert.Nil(t, session.Opponent("stranger"))
}

func TestSession_MakeMove(t *testing.T) {
	t.Run("Accepted move records the cell and flips the turn", func(t *testing.T) {
		// Given: a fresh session
		session, _, _ := newTestSession()
		mover, waiter := turnOrder(session)

		// When: the turn owner places at (7, 7)
		outcome, err := session.MakeMove(mover.ID, 7, 7)

		// Then: the move continues the game and the opponent owns the turn
		require.NoError(t, err)
		assert.Equal(t, MoveContinue, outcome)
		assert.Equal(t, mover.Mark, session.Board[7][7])
		assert.Equal(t, &Move{Row: 7, Col: 7}, session.LastMove)
		assert.Equal(t, waiter.ID, session.Turn)
	})

	t.Run("A move from the non-owner never mutates the board", func(t *testing.T) {
		// Given: a fresh session
		session, _, _ := newTestSession()
		_, waiter := turnOrder(session)

		// When: the waiting player tries to move
		_, err := session.MakeMove(waiter.ID, 7, 7)

		// Then: the move is rejected and the board is untouched
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, *NewBoard(), *session.Board)
		assert.NotEqual(t, waiter.ID, session.Turn)
	})

	t.Run("An occupied cell rejects the move without a state change", func(t *testing.T) {
		// Given: a session where (7, 7) is taken
		session, _, _ := newTestSession()
		mover, waiter := turnOrder(session)
		_, err := session.MakeMove(mover.ID, 7, 7)
		require.NoError(t, err)

		// When: the opponent targets the same cell
		_, err = session.MakeMove(waiter.ID, 7, 7)

		// Then: the cell keeps its first symbol and the turn does not flip
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, mover.Mark, session.Board[7][7])
		assert.Equal(t, waiter.ID, session.Turn)
	})

	t.Run("Out-of-bounds coordinates are rejected", func(t *testing.T) {
		session, _, _ := newTestSession()
		mover, _ := turnOrder(session)

		_, err := session.MakeMove(mover.ID, BoardSize, 0)

		require.ErrorIs(t, err, apperror.ErrCellOutOfBounds)
	})

	t.Run("Turn ownership strictly alternates across accepted moves", func(t *testing.T) {
		session, _, _ := newTestSession()
		mover, waiter := turnOrder(session)

		moves := []Move{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}}
		for i, move := range moves {
			expected := mover
			if i%2 == 1 {
				expected = waiter
			}

			require.Equal(t, expected.ID, session.Turn, "move %d", i)

			outcome, err := session.MakeMove(expected.ID, move.Row, move.Col)
			require.NoError(t, err)
			require.Equal(t, MoveContinue, outcome)
		}
	})

	t.Run("The fifth in a row finishes the game as a win", func(t *testing.T) {
		// Given: X holds row 0 cols 0-3, O holds row 1 cols 0-3
		session, _, _ := newTestSession()
		mover, _ := turnOrder(session)
		for col := 0; col < 4; col++ {
			session.Board[0][col] = mover.Mark
			session.Board[1][col] = session.Opponent(mover.ID).Mark
		}

		// When: X completes the run
		outcome, err := session.MakeMove(mover.ID, 0, 4)

		// Then: the session is finished and no one owns the turn
		require.NoError(t, err)
		assert.Equal(t, MoveWin, outcome)
		assert.True(t, session.IsFinished())
		assert.Empty(t, session.Turn)
	})

	t.Run("Filling the last cell without a win is a draw", func(t *testing.T) {
		// Given: a full draw position with only (14, 14) left
		session, _, _ := newTestSession()
		*session.Board = *fullDrawBoard()
		session.Board[14][14] = EmptyCell

		// And: the turn owner plays the symbol the draw pattern expects there
		mover, _ := turnOrder(session)
		expected := fullDrawBoard()[14][14]
		if mover.Mark != expected {
			mover = session.Opponent(mover.ID)
			session.Turn = mover.ID
		}

		// When: the last cell is filled
		outcome, err := session.MakeMove(mover.ID, 14, 14)

		// Then: the game ends in a draw
		require.NoError(t, err)
		assert.Equal(t, MoveDraw, outcome)
		assert.True(t, session.IsFinished())
	})

	t.Run("Moves after the game is over are rejected", func(t *testing.T) {
		session, _, _ := newTestSession()
		mover, _ := turnOrder(session)
		session.Forfeit()

		_, err := session.MakeMove(mover.ID, 0, 0)

		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestSession_RematchVotes(t *testing.T) {
	t.Run("Rematch requests complete only when both players voted", func(t *testing.T) {
		session, alice, bob := newTestSession()

		assert.False(t, session.RequestRematch(alice.ID))
		// A repeat vote from the same player still counts once.
		assert.False(t, session.RequestRematch(alice.ID))
		assert.True(t, session.RequestRematch(bob.ID))
	})

	t.Run("Declines complete only when both players voted", func(t *testing.T) {
		session, alice, bob := newTestSession()

		assert.False(t, session.DeclineRematch(bob.ID))
		assert.True(t, session.DeclineRematch(alice.ID))
	})
}

func TestSession_Restart(t *testing.T) {
	// Given: a finished game with recorded votes and moves
	session, alice, bob := newTestSession()
	mover, _ := turnOrder(session)
	_, err := session.MakeMove(mover.ID, 7, 7)
	require.NoError(t, err)

	session.Forfeit()
	session.RequestRematch(alice.ID)
	session.RequestRematch(bob.ID)
	seqBefore := session.MoveSeq

	// When: the session restarts
	session.Restart()

	// Then: the board, last move and votes reset under the same identity
	assert.Equal(t, *NewBoard(), *session.Board)
	assert.Nil(t, session.LastMove)
	assert.Empty(t, session.RematchRequests)
	assert.Empty(t, session.RematchDeclines)
	assert.True(t, session.IsOngoing())
	assert.Greater(t, session.MoveSeq, seqBefore)

	// And: the marks are reassigned, X to the new turn owner
	newMover, newWaiter := turnOrder(session)
	assert.Equal(t, PlayerX, newMover.Mark)
	assert.Equal(t, PlayerO, newWaiter.Mark)
}
