package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

// JoinRoomRequest is the request body for taking a seat
type JoinRoomRequest struct {
	Passcode     string `json:"passcode"`
	PlayerID     string `json:"playerId"`
	Username     string `json:"username,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// MoveRequest is the request body for placing a symbol.
// Move is a pointer so a missing index is told apart from cell 0.
type MoveRequest struct {
	Passcode string `json:"passcode"`
	PlayerID string `json:"playerId"`
	Move     *int   `json:"move"`
}

// RestartRequest is the request body for starting a new game
type RestartRequest struct {
	Passcode  string `json:"passcode"`
	SwapSeats bool   `json:"swapSeats,omitempty"`
}

// LeaveRoomRequest is the request body for giving up a seat
type LeaveRoomRequest struct {
	Passcode     string `json:"passcode"`
	PlayerID     string `json:"playerId"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// UpdatePlayerRequest is the request body for renaming a seated player
type UpdatePlayerRequest struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Symbol   string `json:"symbol"`
}
