package model

import (
	"sync"
	"time"
)

// RoomID is the opaque identifier assigned to a room at creation
type RoomID string

// Room is a single game session with up to two seated players.
// All fields except ID, Name, PasscodeHash and CreatedAt are guarded by Mu.
type Room struct {
	Mu sync.Mutex

	ID           RoomID
	Name         string
	PasscodeHash []byte // bcrypt hash, immutable

	Board         Board
	CurrentPlayer Symbol
	Players       map[Symbol]*Seat // always holds both X and O
	Winner        Symbol
	GameOver      bool

	// Deleted is set once the room has left the index; late callers treat it as not found
	Deleted bool

	CreatedAt    time.Time
	LastActivity time.Time
}

// NewRoom creates a room with empty seats and a fresh board
func NewRoom(id RoomID, name string, passcodeHash []byte, now time.Time) *Room {
	return &Room{
		ID:            id,
		Name:          name,
		PasscodeHash:  passcodeHash,
		CurrentPlayer: SymbolX,
		Players: map[Symbol]*Seat{
			SymbolX: {},
			SymbolO: {},
		},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// SymbolOf returns the seat held by the player, or SymbolNone
func (r *Room) SymbolOf(playerID PlayerID) Symbol {
	if playerID == "" {
		return SymbolNone
	}
	for _, symbol := range SeatOrder {
		if r.Players[symbol].PlayerID == playerID {
			return symbol
		}
	}
	return SymbolNone
}

// PlayerCount returns the number of occupied seats
func (r *Room) PlayerCount() int {
	count := 0
	for _, symbol := range SeatOrder {
		if r.Players[symbol].Occupied() {
			count++
		}
	}
	return count
}

// IsFull returns true when both seats are taken
func (r *Room) IsFull() bool {
	return r.PlayerCount() == len(SeatOrder)
}

// FirstFreeSeat returns the first unoccupied seat in X, O order, or SymbolNone
func (r *Room) FirstFreeSeat() Symbol {
	for _, symbol := range SeatOrder {
		if !r.Players[symbol].Occupied() {
			return symbol
		}
	}
	return SymbolNone
}

// ResetGame clears the board and hands the first turn to X
func (r *Room) ResetGame() {
	r.Board = Board{}
	r.CurrentPlayer = SymbolX
	r.Winner = SymbolNone
	r.GameOver = false
}

// SwapSeats exchanges the players between X and O.
// Scores belong to the seat and do not move.
func (r *Room) SwapSeats() {
	x, o := r.Players[SymbolX], r.Players[SymbolO]
	x.PlayerID, o.PlayerID = o.PlayerID, x.PlayerID
	x.Username, o.Username = o.Username, x.Username
}

// State returns the current game state
func (r *Room) State() GameState {
	return GameState{
		Board:         r.Board,
		CurrentPlayer: r.CurrentPlayer,
		Winner:        r.Winner,
		GameOver:      r.GameOver,
	}
}

// View returns a copy of the room safe to hand out of the store
func (r *Room) View() RoomView {
	players := make(map[Symbol]Seat, len(r.Players))
	for symbol, seat := range r.Players {
		players[symbol] = *seat
	}
	return RoomView{
		ID:           r.ID,
		Name:         r.Name,
		GameState:    r.State(),
		Players:      players,
		PlayerCount:  r.PlayerCount(),
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
	}
}

// Summary returns the search listing for the room
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		PlayerCount: r.PlayerCount(),
		GameOver:    r.GameOver,
		IsFull:      r.IsFull(),
	}
}

// SeatOrder is the order in which seats are assigned
var SeatOrder = [2]Symbol{SymbolX, SymbolO}

// GameState is the turn-level state shared by move and restart results
type GameState struct {
	Board         Board
	CurrentPlayer Symbol
	Winner        Symbol
	GameOver      bool
}

// RoomRef identifies a newly created room
type RoomRef struct {
	ID   RoomID
	Name string
}

// RoomSummary is a search result entry
type RoomSummary struct {
	ID          RoomID
	Name        string
	PlayerCount int
	GameOver    bool
	IsFull      bool
}

// RoomView is the full room state without passcode or connection tracking
type RoomView struct {
	ID RoomID
	GameState
	Name         string
	Players      map[Symbol]Seat
	PlayerCount  int
	CreatedAt    time.Time
	LastActivity time.Time
}

// JoinResult is returned when a player takes or reclaims a seat
type JoinResult struct {
	Symbol        Symbol
	Board         Board
	CurrentPlayer Symbol
}
