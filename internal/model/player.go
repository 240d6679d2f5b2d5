package model

// PlayerID is the opaque identity a client presents when taking a seat
type PlayerID string

// ConnectionID identifies one live realtime connection
type ConnectionID string

// Seat is one of the two fixed positions in a room
type Seat struct {
	PlayerID PlayerID // empty when the seat is free
	Username string
	Score    int
}

// Occupied returns true if a player holds the seat
func (s Seat) Occupied() bool {
	return s.PlayerID != ""
}

// DefaultUsername returns the name shown for a seat whose player gave none
func DefaultUsername(symbol Symbol) string {
	return "Player " + string(symbol)
}
