package redismirror

import (
	"fmt"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// Key prefix for all mirrored data
const keyPrefix = "tictactoe"

// ChannelName returns the pub/sub channel carrying a room's events
func ChannelName(roomID model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:events", keyPrefix, roomID)
}

// historyKey returns the Redis key for a room's recent events
func historyKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:history", keyPrefix, roomID)
}
