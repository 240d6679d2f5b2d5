package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

const (
	x = model.SymbolX
	o = model.SymbolO
	e = model.SymbolNone
)

func TestWinner(t *testing.T) {
	tests := []struct {
		name  string
		board model.Board
		want  model.Symbol
	}{
		{
			name:  "empty board",
			board: model.Board{},
			want:  e,
		},
		{
			name:  "top row",
			board: model.Board{x, x, x, o, o, e, e, e, e},
			want:  x,
		},
		{
			name:  "middle row",
			board: model.Board{x, e, x, o, o, o, x, e, e},
			want:  o,
		},
		{
			name:  "left column",
			board: model.Board{o, x, e, o, x, e, o, e, x},
			want:  o,
		},
		{
			name:  "right column",
			board: model.Board{o, o, x, e, e, x, e, e, x},
			want:  x,
		},
		{
			name:  "main diagonal",
			board: model.Board{x, o, o, e, x, e, e, e, x},
			want:  x,
		},
		{
			name:  "anti diagonal",
			board: model.Board{x, x, o, e, o, e, o, e, x},
			want:  o,
		},
		{
			name:  "two in a row is not a win",
			board: model.Board{x, x, e, o, o, e, e, e, e},
			want:  e,
		},
		{
			name:  "full board without a line",
			board: model.Board{x, o, x, x, o, o, o, x, x},
			want:  e,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Winner(tt.board))
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		board model.Board
		want  Outcome
	}{
		{
			name:  "in progress",
			board: model.Board{x, e, e, e, o, e, e, e, e},
			want:  Outcome{},
		},
		{
			name:  "win",
			board: model.Board{x, x, x, o, o, e, e, e, e},
			want:  Outcome{Winner: x, GameOver: true},
		},
		{
			name:  "win on the last cell is not a draw",
			board: model.Board{x, o, x, o, x, o, o, x, x},
			want:  Outcome{Winner: x, GameOver: true},
		},
		{
			name:  "draw",
			board: model.Board{x, o, x, x, o, o, o, x, x},
			want:  Outcome{Draw: true, GameOver: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.board))
		})
	}
}
