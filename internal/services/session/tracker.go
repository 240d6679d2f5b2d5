package session

import (
	"log/slog"
	"sync"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// Binding is what the tracker knows about one connection
type Binding struct {
	RoomID   model.RoomID
	PlayerID model.PlayerID // empty until the connection identifies itself
}

// Tracker is the single record of which live connection sits in which room
// and which player it speaks for. A connection is bound to at most one room
// at a time. The room store keeps seats in step with it.
type Tracker struct {
	mu     sync.RWMutex
	conns  map[model.ConnectionID]Binding
	rooms  map[model.RoomID]map[model.ConnectionID]struct{}
	logger *slog.Logger
}

// NewTracker creates an empty Tracker
func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{
		conns:  make(map[model.ConnectionID]Binding),
		rooms:  make(map[model.RoomID]map[model.ConnectionID]struct{}),
		logger: logger.With(slog.String("component", "sessions")),
	}
}

// Bind attaches a connection to a room before its player is known.
// Rebinding to the same room keeps the player; moving rooms detaches the
// connection from the old one.
func (t *Tracker) Bind(conn model.ConnectionID, room model.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	existing, ok := t.conns[conn]
	if ok && existing.RoomID == room {
		return
	}
	if ok {
		t.detachLocked(conn, existing.RoomID)
	}
	t.attachLocked(conn, Binding{RoomID: room})
}

// Identify records which player a connection speaks for
func (t *Tracker) Identify(conn model.ConnectionID, room model.RoomID, player model.PlayerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.conns[conn]; ok && existing.RoomID != room {
		t.detachLocked(conn, existing.RoomID)
	}
	t.attachLocked(conn, Binding{RoomID: room, PlayerID: player})
	t.logger.Debug("connection identified",
		slog.String("connection_id", string(conn)),
		slog.String("room_id", string(room)),
		slog.String("player_id", string(player)),
	)
}

// Claim identifies a connection as player only if it is already bound to
// room. It reports false for ids the tracker does not hold there.
func (t *Tracker) Claim(conn model.ConnectionID, room model.RoomID, player model.PlayerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	existing, ok := t.conns[conn]
	if !ok || existing.RoomID != room {
		return false
	}
	t.conns[conn] = Binding{RoomID: room, PlayerID: player}
	return true
}

// Lookup returns the binding for a connection
func (t *Tracker) Lookup(conn model.ConnectionID) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	binding, ok := t.conns[conn]
	return binding, ok
}

// Unbind removes a connection and returns what it was bound to
func (t *Tracker) Unbind(conn model.ConnectionID) (Binding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	binding, ok := t.conns[conn]
	if !ok {
		return Binding{}, false
	}
	t.detachLocked(conn, binding.RoomID)
	return binding, true
}

// UnbindFrom removes a connection only when it is bound to room
func (t *Tracker) UnbindFrom(conn model.ConnectionID, room model.RoomID) (Binding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	binding, ok := t.conns[conn]
	if !ok || binding.RoomID != room {
		return Binding{}, false
	}
	t.detachLocked(conn, room)
	return binding, true
}

// PlayerConnections counts the connections a player has open in a room
func (t *Tracker) PlayerConnections(room model.RoomID, player model.PlayerID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for conn := range t.rooms[room] {
		if t.conns[conn].PlayerID == player {
			count++
		}
	}
	return count
}

// Forget turns a player's connections in a room back into anonymous ones,
// after the player gave up the seat
func (t *Tracker) Forget(room model.RoomID, player model.PlayerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn := range t.rooms[room] {
		if t.conns[conn].PlayerID == player {
			t.conns[conn] = Binding{RoomID: room}
		}
	}
}

// DropRoom unbinds every connection in a room and returns how many there were
func (t *Tracker) DropRoom(room model.RoomID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := t.rooms[room]
	for conn := range members {
		delete(t.conns, conn)
	}
	delete(t.rooms, room)
	if len(members) > 0 {
		t.logger.Debug("room connections dropped",
			slog.String("room_id", string(room)),
			slog.Int("count", len(members)),
		)
	}
	return len(members)
}

// Count returns the number of bound connections
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

func (t *Tracker) attachLocked(conn model.ConnectionID, binding Binding) {
	t.conns[conn] = binding
	members, ok := t.rooms[binding.RoomID]
	if !ok {
		members = make(map[model.ConnectionID]struct{})
		t.rooms[binding.RoomID] = members
	}
	members[conn] = struct{}{}
}

func (t *Tracker) detachLocked(conn model.ConnectionID, room model.RoomID) {
	delete(t.conns, conn)
	members := t.rooms[room]
	delete(members, conn)
	if len(members) == 0 {
		delete(t.rooms, room)
	}
}
