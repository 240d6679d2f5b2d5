package model

// EventType names a message on the realtime channel
type EventType string

const (
	// Sent by clients
	EventJoinRoom    EventType = "join-room"
	EventLeaveRoom   EventType = "leave-room"
	EventPlayerInfo  EventType = "player-info" // also relayed to peers
	EventMakeMove    EventType = "make-move"
	EventGameRestart EventType = "game-restart"

	// Sent by the server
	EventConnected     EventType = "connected"
	EventUserJoined    EventType = "user-joined"
	EventMoveMade      EventType = "move-made"
	EventGameRestarted EventType = "game-restarted"
	EventUserLeft      EventType = "user-left"
	EventError         EventType = "error"
)
