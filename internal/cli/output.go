package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case PlayerResult:
		o.printPlayer(v)
	case RoomRef:
		o.printRoomRef(v)
	case RoomList:
		o.printRoomList(v)
	case Room:
		o.printRoom(v)
	case JoinResult:
		o.printJoinResult(v)
	case GameState:
		o.printGameState(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// PlayerResult describes the local player identity
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	File     string `json:"file"`
}

// RoomRef response type (matches API)
type RoomRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomSummary response type
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	GameOver    bool   `json:"gameOver"`
	IsFull      bool   `json:"isFull"`
}

// RoomList is the search response
type RoomList []RoomSummary

// Seat response type
type Seat struct {
	PlayerID *string `json:"playerId"`
	Username string  `json:"username,omitempty"`
	Score    int     `json:"score"`
}

// Room response type
type Room struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Board         []*string       `json:"board"`
	CurrentPlayer string          `json:"currentPlayer"`
	Players       map[string]Seat `json:"players"`
	PlayerCount   int             `json:"playerCount"`
	Winner        *string         `json:"winner"`
	GameOver      bool            `json:"gameOver"`
}

// JoinResult response type
type JoinResult struct {
	Symbol        string    `json:"symbol"`
	Board         []*string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
}

// GameState response type
type GameState struct {
	Board         []*string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
	Winner        *string   `json:"winner"`
	GameOver      bool      `json:"gameOver"`
}

// HealthResult response type
type HealthResult struct {
	Status          string `json:"status"`
	RoomCount       int    `json:"roomCount"`
	ConnectionCount int    `json:"connectionCount"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printPlayer(p PlayerResult) {
	o.printf("Player: %s\n", p.PlayerID)
	o.printf("Saved in: %s\n", p.File)
}

func (o *Output) printRoomRef(r RoomRef) {
	o.printf("Room: %s (%s)\n", r.Name, r.ID)
}

func (o *Output) printRoomList(rooms RoomList) {
	if len(rooms) == 0 {
		o.printf("No rooms\n")
		return
	}
	for _, r := range rooms {
		status := "open"
		switch {
		case r.GameOver:
			status = "game over"
		case r.IsFull:
			status = "full"
		}
		o.printf("%-14s %-24s %d/2  %s\n", r.ID, r.Name, r.PlayerCount, status)
	}
}

func (o *Output) printRoom(r Room) {
	o.printf("Room: %s (%s)\n", r.Name, r.ID)
	for _, symbol := range []string{"X", "O"} {
		seat := r.Players[symbol]
		if seat.PlayerID == nil {
			o.printf("  %s: (free)\n", symbol)
			continue
		}
		o.printf("  %s: %s - %d wins\n", symbol, seat.Username, seat.Score)
	}
	o.printf("\n")
	o.printGameState(GameState{
		Board:         r.Board,
		CurrentPlayer: r.CurrentPlayer,
		Winner:        r.Winner,
		GameOver:      r.GameOver,
	})
}

func (o *Output) printJoinResult(j JoinResult) {
	o.printf("Seated as %s\n\n", j.Symbol)
	o.printGameState(GameState{Board: j.Board, CurrentPlayer: j.CurrentPlayer})
}

func (o *Output) printGameState(g GameState) {
	o.printBoard(g.Board)
	o.printf("\n")

	switch {
	case g.GameOver && g.Winner != nil:
		o.printf("Winner: %s\n", *g.Winner)
	case g.GameOver:
		o.printf("Draw\n")
	default:
		o.printf("To play: %s\n", g.CurrentPlayer)
	}
}

// printBoard renders the grid with free cells showing their index
func (o *Output) printBoard(board []*string) {
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := range cells {
			i := row*3 + col
			cells[col] = strconv.Itoa(i)
			if i < len(board) && board[i] != nil {
				cells[col] = *board[i]
			}
		}
		o.printf(" %s\n", strings.Join(cells, " | "))
		if row < 2 {
			o.printf("---+---+---\n")
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Rooms: %d\n", h.RoomCount)
	o.printf("Connections: %d\n", h.ConnectionCount)
}
