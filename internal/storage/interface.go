package storage

import (
	"context"
	"errors"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// ErrRoomIDTaken is returned when inserting a room whose id is already held
var ErrRoomIDTaken = errors.New("room id already in use")

// Storage holds the rooms alive in this process, indexed by id and name.
// Implementations only touch a room's immutable fields (ID, Name, CreatedAt),
// so callers may hold the room's lock while calling in.
type Storage interface {
	// InsertRoom adds a room. Fails with model.ErrRoomNameTaken if the name is
	// held and ErrRoomIDTaken if the id is.
	InsertRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// ListRooms returns every room ordered by creation time
	ListRooms(ctx context.Context) ([]*model.Room, error)
	CountRooms(ctx context.Context) (int, error)
}
