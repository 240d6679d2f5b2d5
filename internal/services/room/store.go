package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tictactoe-rooms/internal/dependencies/clock"
	"github.com/mcoot/tictactoe-rooms/internal/dependencies/random"
	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/services/board"
	"github.com/mcoot/tictactoe-rooms/internal/services/session"
	"github.com/mcoot/tictactoe-rooms/internal/storage"
)

const (
	// RoomIDLength is the length of generated room ids
	RoomIDLength = 12
	// RoomIDAlphabet avoids characters that are easy to misread
	RoomIDAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
	// PasscodeLength is the number of digits in a room passcode
	PasscodeLength = 4

	maxIDAttempts = 16
)

// Config holds room lifecycle settings
type Config struct {
	// InactivityTimeout is how long a room may sit idle before the sweep evicts it
	InactivityTimeout time.Duration
	// SweepInterval is the period of the background sweep started by Start
	SweepInterval time.Duration
	// PasscodeCost is the bcrypt cost used to hash passcodes
	PasscodeCost int
}

// DefaultConfig returns the production room settings
func DefaultConfig() Config {
	return Config{
		InactivityTimeout: 5 * time.Minute,
		SweepInterval:     time.Minute,
		PasscodeCost:      bcrypt.DefaultCost,
	}
}

// DeleteHook is called after a room leaves the store, outside any room lock
type DeleteHook func(id model.RoomID)

// Store owns the rooms of this process and enforces the game rules.
// Each room is guarded by its own mutex; the index and the session tracker
// are only locked briefly and always after a room lock, never before.
// Seat release decisions read the connections held by the tracker.
type Store struct {
	storage  storage.Storage
	sessions *session.Tracker
	clock   clock.Clock
	random  random.Random
	cfg     Config
	logger  *slog.Logger

	hooksMu sync.RWMutex
	hooks   []DeleteHook

	sweepMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// NewStore creates a new room Store
func NewStore(
	storage storage.Storage,
	sessions *session.Tracker,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Store {
	if cfg.PasscodeCost == 0 {
		cfg.PasscodeCost = bcrypt.DefaultCost
	}
	return &Store{
		storage:  storage,
		sessions: sessions,
		clock:    clock,
		random:   random,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "rooms")),
	}
}

// OnDelete registers a hook run whenever a room is deleted or evicted
func (s *Store) OnDelete(hook DeleteHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// ValidatePasscode checks that a passcode is exactly four digits
func ValidatePasscode(passcode string) error {
	if len(passcode) != PasscodeLength {
		return model.ErrInvalidPasscodeFormat
	}
	for _, r := range passcode {
		if r < '0' || r > '9' {
			return model.ErrInvalidPasscodeFormat
		}
	}
	return nil
}

// Create allocates a new room with empty seats
func (s *Store) Create(ctx context.Context, name, passcode string) (*model.RoomRef, error) {
	if strings.TrimSpace(name) == "" {
		return nil, model.ErrMissingName
	}
	if err := ValidatePasscode(passcode); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), s.cfg.PasscodeCost)
	if err != nil {
		return nil, fmt.Errorf("hash passcode: %w", err)
	}

	now := s.clock.Now()
	for range maxIDAttempts {
		id := model.RoomID(s.random.String(RoomIDLength, RoomIDAlphabet))
		room := model.NewRoom(id, name, hash, now)

		err := s.storage.InsertRoom(ctx, room)
		if errors.Is(err, storage.ErrRoomIDTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("room created",
			slog.String("room_id", string(id)),
			slog.String("name", name),
		)
		return &model.RoomRef{ID: id, Name: name}, nil
	}
	return nil, fmt.Errorf("allocate room id: %w", storage.ErrRoomIDTaken)
}

// Search lists rooms whose name contains term, ignoring case.
// Idle rooms are swept before the listing is read.
func (s *Store) Search(ctx context.Context, term string) ([]model.RoomSummary, error) {
	s.Sweep(ctx)

	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	results := make([]model.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		if needle != "" && !strings.Contains(strings.ToLower(room.Name), needle) {
			continue
		}
		room.Mu.Lock()
		if !room.Deleted {
			results = append(results, room.Summary())
		}
		room.Mu.Unlock()
	}
	return results, nil
}

// Get returns the full room state and refreshes its activity
func (s *Store) Get(ctx context.Context, id model.RoomID, passcode string) (*model.RoomView, error) {
	var view model.RoomView
	err := s.withRoom(ctx, id, passcode, func(room *model.Room) error {
		s.touch(room)
		view = room.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Join seats a player, or returns the seat they already hold. A
// connectionID naming a live connection already in the room is bound to
// the player; unknown ids are ignored.
func (s *Store) Join(
	ctx context.Context,
	id model.RoomID,
	passcode string,
	playerID model.PlayerID,
	username string,
	connectionID model.ConnectionID,
) (*model.JoinResult, error) {
	var result model.JoinResult
	err := s.withRoom(ctx, id, passcode, func(room *model.Room) error {
		if playerID == "" {
			return model.ErrMissingPlayerID
		}

		symbol := room.SymbolOf(playerID)
		if symbol == model.SymbolNone {
			if room.IsFull() {
				return model.ErrRoomFull
			}
			symbol = room.FirstFreeSeat()
			seat := room.Players[symbol]
			seat.PlayerID = playerID
			seat.Username = username
			if seat.Username == "" {
				seat.Username = model.DefaultUsername(symbol)
			}
			s.logger.Info("player seated",
				slog.String("room_id", string(id)),
				slog.String("player_id", string(playerID)),
				slog.String("symbol", string(symbol)),
			)
		}

		if connectionID != "" && !s.sessions.Claim(connectionID, id, playerID) {
			s.logger.Debug("join named an unknown connection",
				slog.String("room_id", string(id)),
				slog.String("connection_id", string(connectionID)),
			)
		}
		s.touch(room)

		result = model.JoinResult{
			Symbol:        symbol,
			Board:         room.Board,
			CurrentPlayer: room.CurrentPlayer,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePlayerInfo renames the player holding the given seat
func (s *Store) UpdatePlayerInfo(
	ctx context.Context,
	id model.RoomID,
	playerID model.PlayerID,
	username string,
	symbol model.Symbol,
) error {
	return s.withTrustedRoom(ctx, id, func(room *model.Room) error {
		if !symbol.Valid() {
			return model.ErrUnknownSymbol
		}
		if playerID == "" || room.Players[symbol].PlayerID != playerID {
			return model.ErrSeatNotHeld
		}
		if username == "" {
			username = model.DefaultUsername(symbol)
		}
		room.Players[symbol].Username = username
		s.touch(room)
		return nil
	})
}

// Move places the player's symbol at index and evaluates the board
func (s *Store) Move(
	ctx context.Context,
	id model.RoomID,
	passcode string,
	playerID model.PlayerID,
	index int,
) (*model.GameState, error) {
	var state model.GameState
	err := s.withRoom(ctx, id, passcode, func(room *model.Room) error {
		if room.GameOver {
			return model.ErrGameOver
		}
		symbol := room.SymbolOf(playerID)
		if symbol == model.SymbolNone {
			return model.ErrNotSeated
		}
		if symbol != room.CurrentPlayer {
			return model.ErrNotYourTurn
		}
		if !room.Board.IsEmpty(index) {
			return model.ErrInvalidMove
		}

		room.Board[index] = symbol
		outcome := board.Evaluate(room.Board)
		switch {
		case outcome.Winner != model.SymbolNone:
			room.Winner = outcome.Winner
			room.GameOver = true
			room.Players[outcome.Winner].Score++
			s.logger.Info("game won",
				slog.String("room_id", string(id)),
				slog.String("winner", string(outcome.Winner)),
			)
		case outcome.Draw:
			room.GameOver = true
			s.logger.Info("game drawn", slog.String("room_id", string(id)))
		default:
			room.CurrentPlayer = symbol.Opponent()
		}
		s.touch(room)

		state = room.State()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Restart clears the board for a new game. With swapSeats the players trade
// seats while each seat keeps its score.
func (s *Store) Restart(ctx context.Context, id model.RoomID, passcode string, swapSeats bool) (*model.GameState, error) {
	var state model.GameState
	err := s.withRoom(ctx, id, passcode, func(room *model.Room) error {
		room.ResetGame()
		if swapSeats {
			room.SwapSeats()
		}
		s.touch(room)
		state = room.State()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Leave releases the player's seat. When connectionID is given and the
// player still has another live connection in the room, the seat is kept.
func (s *Store) Leave(
	ctx context.Context,
	id model.RoomID,
	passcode string,
	playerID model.PlayerID,
	connectionID model.ConnectionID,
) error {
	deleted := false
	err := s.withRoom(ctx, id, passcode, func(room *model.Room) error {
		deleted = s.leaveLocked(ctx, room, playerID, connectionID)
		return nil
	})
	if err != nil {
		return err
	}
	if deleted {
		s.runHooks(id)
	}
	return nil
}

// Disconnect is the best-effort leave for a connection that dropped without
// an explicit leave. The seat of the player bound to the connection is
// released once none of that player's connections remain.
func (s *Store) Disconnect(ctx context.Context, id model.RoomID, connectionID model.ConnectionID) error {
	deleted := false
	err := s.withTrustedRoom(ctx, id, func(room *model.Room) error {
		if binding, ok := s.sessions.Lookup(connectionID); !ok || binding.RoomID != id {
			return nil
		}
		deleted = s.leaveLocked(ctx, room, "", connectionID)
		return nil
	})
	if err != nil {
		return err
	}
	if deleted {
		s.runHooks(id)
	}
	return nil
}

// leaveLocked vacates a seat and reports whether the room was deleted.
// The caller holds room.Mu.
func (s *Store) leaveLocked(ctx context.Context, room *model.Room, playerID model.PlayerID, connectionID model.ConnectionID) bool {
	s.touch(room)

	if connectionID != "" {
		binding, ok := s.sessions.UnbindFrom(connectionID, room.ID)
		if playerID == "" && ok {
			playerID = binding.PlayerID
		}
		if playerID != "" && s.sessions.PlayerConnections(room.ID, playerID) > 0 {
			s.logger.Debug("seat kept by another connection",
				slog.String("room_id", string(room.ID)),
				slog.String("player_id", string(playerID)),
			)
			return false
		}
	}

	symbol := room.SymbolOf(playerID)
	if symbol == model.SymbolNone {
		return false
	}

	*room.Players[symbol] = model.Seat{}
	s.sessions.Forget(room.ID, playerID)
	s.logger.Info("player left",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(playerID)),
		slog.String("symbol", string(symbol)),
	)

	if room.PlayerCount() > 0 {
		return false
	}
	s.deleteLocked(ctx, room)
	s.logger.Info("room closed", slog.String("room_id", string(room.ID)))
	return true
}

// deleteLocked removes the room from the index and releases its
// connections. The caller holds room.Mu and runs the delete hooks after
// unlocking.
func (s *Store) deleteLocked(ctx context.Context, room *model.Room) {
	room.Deleted = true
	if err := s.storage.DeleteRoom(ctx, room.ID); err != nil {
		s.logger.Error("failed to delete room",
			slog.String("room_id", string(room.ID)),
			slog.String("error", err.Error()),
		)
	}
	s.sessions.DropRoom(room.ID)
}

// RegisterConnection binds a connection to the room, and to a player when
// playerID is set. A connection already bound to a player is not
// downgraded by an anonymous registration.
func (s *Store) RegisterConnection(ctx context.Context, id model.RoomID, connectionID model.ConnectionID, playerID model.PlayerID) error {
	return s.withTrustedRoom(ctx, id, func(room *model.Room) error {
		if playerID == "" {
			s.sessions.Bind(connectionID, id)
		} else {
			s.sessions.Identify(connectionID, id, playerID)
		}
		s.touch(room)
		return nil
	})
}

// RemoveConnection unbinds a connection from the room without touching seats
func (s *Store) RemoveConnection(ctx context.Context, id model.RoomID, connectionID model.ConnectionID) error {
	return s.withTrustedRoom(ctx, id, func(room *model.Room) error {
		s.sessions.UnbindFrom(connectionID, id)
		return nil
	})
}

// State returns the committed game state of a room
func (s *Store) State(ctx context.Context, id model.RoomID) (*model.GameState, error) {
	var state model.GameState
	err := s.withTrustedRoom(ctx, id, func(room *model.Room) error {
		state = room.State()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Count returns the number of rooms held
func (s *Store) Count(ctx context.Context) int {
	count, err := s.storage.CountRooms(ctx)
	if err != nil {
		s.logger.Error("failed to count rooms", slog.String("error", err.Error()))
		return 0
	}
	return count
}

// withRoom runs fn under the room's lock after checking the passcode.
// The hash is immutable, so the comparison runs before the lock is taken.
func (s *Store) withRoom(ctx context.Context, id model.RoomID, passcode string, fn func(room *model.Room) error) error {
	room, err := s.storage.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(room.PasscodeHash, []byte(passcode)) != nil {
		return model.ErrInvalidPasscode
	}
	return s.lockRoom(room, fn)
}

// withTrustedRoom runs fn under the room's lock without a passcode check.
// Used for calls originating from connections the gateway already tracks.
func (s *Store) withTrustedRoom(ctx context.Context, id model.RoomID, fn func(room *model.Room) error) error {
	room, err := s.storage.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	return s.lockRoom(room, fn)
}

func (s *Store) lockRoom(room *model.Room, fn func(room *model.Room) error) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Deleted {
		return model.ErrRoomNotFound
	}
	return fn(room)
}

func (s *Store) touch(room *model.Room) {
	room.LastActivity = s.clock.Now()
}

func (s *Store) runHooks(id model.RoomID) {
	s.hooksMu.RLock()
	hooks := append([]DeleteHook(nil), s.hooks...)
	s.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(id)
	}
}
