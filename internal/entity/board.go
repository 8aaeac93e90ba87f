package entity

import (
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

const (
	BoardSize = 15
	WinLength = 5

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = " "
)

// lineDirections are the four scan lines through a cell: horizontal,
// vertical and the two diagonals.
var lineDirections = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// Board is a 15x15 grid of single-character cells. It serializes to JSON
// as 15 rows of 15 strings, which is the wire format.
type Board [BoardSize][BoardSize]string

func NewBoard() *Board {
	board := &Board{}
	for row := range board {
		for col := range board[row] {
			board[row][col] = EmptyCell
		}
	}

	return board
}

// Place - writes a symbol into a cell. A non-empty cell is never overwritten.
func (that *Board) Place(row, col int, symbol string) error {
	if !inBounds(row, col) {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrCellOutOfBounds, row, col)
	}

	if that[row][col] != EmptyCell {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrCellOccupied, row, col)
	}

	that[row][col] = symbol

	return nil
}

// IsWinningMove - reports whether the cell just placed at (row, col)
// completes a run of WinLength or more. The scan walks outward in both
// signs of each direction from the placed cell, so the check is bounded
// and does not rescan the whole board.
func (that *Board) IsWinningMove(row, col int, symbol string) bool {
	for _, dir := range lineDirections {
		count := 1

		for i := 1; i < WinLength; i++ {
			r, c := row+i*dir[0], col+i*dir[1]
			if !inBounds(r, c) || that[r][c] != symbol {
				break
			}
			count++
		}

		for i := 1; i < WinLength; i++ {
			r, c := row-i*dir[0], col-i*dir[1]
			if !inBounds(r, c) || that[r][c] != symbol {
				break
			}
			count++
		}

		if count >= WinLength {
			return true
		}
	}

	return false
}

func (that *Board) IsFull() bool {
	for row := range that {
		for col := range that[row] {
			if that[row][col] == EmptyCell {
				return false
			}
		}
	}

	return true
}

func inBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}
