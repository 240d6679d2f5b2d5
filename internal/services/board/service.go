package board

import "github.com/mcoot/tictactoe-rooms/internal/model"

// Lines are the 8 winning lines, checked in this order: rows, columns, diagonals
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Outcome is the evaluated result of a board
type Outcome struct {
	Winner   model.Symbol // SymbolNone if no line is complete
	Draw     bool         // board full with no winner
	GameOver bool
}

// Winner returns the symbol occupying the first completed line, or SymbolNone
func Winner(b model.Board) model.Symbol {
	for _, line := range Lines {
		first := b[line[0]]
		if first == model.SymbolNone {
			continue
		}
		if b[line[1]] == first && b[line[2]] == first {
			return first
		}
	}
	return model.SymbolNone
}

// Evaluate computes the winner and draw state of a board
func Evaluate(b model.Board) Outcome {
	winner := Winner(b)
	if winner != model.SymbolNone {
		return Outcome{Winner: winner, GameOver: true}
	}
	if b.IsFull() {
		return Outcome{Draw: true, GameOver: true}
	}
	return Outcome{}
}
