package response

import (
	"time"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// Board renders the grid with empty cells as null
func Board(b model.Board) []*string {
	cells := make([]*string, len(b))
	for i, cell := range b {
		cells[i] = Symbol(cell)
	}
	return cells
}

// Symbol renders a symbol, with SymbolNone as null
func Symbol(s model.Symbol) *string {
	if s == model.SymbolNone {
		return nil
	}
	v := string(s)
	return &v
}

// RoomRef is the response for a created room
type RoomRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomRefFromModel converts model.RoomRef
func RoomRefFromModel(r *model.RoomRef) RoomRef {
	return RoomRef{ID: string(r.ID), Name: r.Name}
}

// RoomSummary is an entry in search results
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	GameOver    bool   `json:"gameOver"`
	IsFull      bool   `json:"isFull"`
}

// RoomSummariesFromModel converts a search result list
func RoomSummariesFromModel(rooms []model.RoomSummary) []RoomSummary {
	result := make([]RoomSummary, len(rooms))
	for i, r := range rooms {
		result[i] = RoomSummary{
			ID:          string(r.ID),
			Name:        r.Name,
			PlayerCount: r.PlayerCount,
			GameOver:    r.GameOver,
			IsFull:      r.IsFull,
		}
	}
	return result
}

// Seat is one occupied or free seat
type Seat struct {
	PlayerID *string `json:"playerId"`
	Username string  `json:"username,omitempty"`
	Score    int     `json:"score"`
}

// Room is the full room view
type Room struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Board         []*string       `json:"board"`
	CurrentPlayer string          `json:"currentPlayer"`
	Players       map[string]Seat `json:"players"`
	PlayerCount   int             `json:"playerCount"`
	Winner        *string         `json:"winner"`
	GameOver      bool            `json:"gameOver"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastActivity  time.Time       `json:"lastActivity"`
}

// RoomFromModel converts model.RoomView
func RoomFromModel(v *model.RoomView) Room {
	players := make(map[string]Seat, len(v.Players))
	for symbol, seat := range v.Players {
		var pid *string
		if seat.Occupied() {
			id := string(seat.PlayerID)
			pid = &id
		}
		players[string(symbol)] = Seat{
			PlayerID: pid,
			Username: seat.Username,
			Score:    seat.Score,
		}
	}
	return Room{
		ID:            string(v.ID),
		Name:          v.Name,
		Board:         Board(v.Board),
		CurrentPlayer: string(v.CurrentPlayer),
		Players:       players,
		PlayerCount:   v.PlayerCount,
		Winner:        Symbol(v.Winner),
		GameOver:      v.GameOver,
		CreatedAt:     v.CreatedAt,
		LastActivity:  v.LastActivity,
	}
}

// Join is the response for taking a seat
type Join struct {
	Symbol        string    `json:"symbol"`
	Board         []*string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
}

// JoinFromModel converts model.JoinResult
func JoinFromModel(j *model.JoinResult) Join {
	return Join{
		Symbol:        string(j.Symbol),
		Board:         Board(j.Board),
		CurrentPlayer: string(j.CurrentPlayer),
	}
}

// GameState is the response for a move or restart
type GameState struct {
	Board         []*string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
	Winner        *string   `json:"winner"`
	GameOver      bool      `json:"gameOver"`
}

// GameStateFromModel converts model.GameState
func GameStateFromModel(s *model.GameState) GameState {
	return GameState{
		Board:         Board(s.Board),
		CurrentPlayer: string(s.CurrentPlayer),
		Winner:        Symbol(s.Winner),
		GameOver:      s.GameOver,
	}
}

// Success is the response for operations without a payload
type Success struct {
	Success bool `json:"success"`
}

// Health is the response for the health check
type Health struct {
	Status          string `json:"status"`
	RoomCount       int    `json:"roomCount"`
	ConnectionCount int    `json:"connectionCount"`
}
