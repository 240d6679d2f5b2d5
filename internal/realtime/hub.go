package realtime

import (
	"log/slog"
	"sync"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

const hubBufferSize = 256

type outbound struct {
	origin *Client
	data   []byte
}

// Hub fans messages out to the clients subscribed to a single room
type Hub struct {
	roomID  model.RoomID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	broadcast chan outbound
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:    roomID,
		clients:   make(map[*Client]bool),
		logger:    logger.With(slog.String("room_id", string(roomID))),
		broadcast: make(chan outbound, hubBufferSize),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's fan-out loop
func (h *Hub) Run() {
	h.logger.Debug("hub started")
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			clear(h.clients)
			h.mu.Unlock()
			h.logger.Debug("hub stopped", slog.Int("detached_clients", clientCount))
			return
		}
	}
}

func (h *Hub) fanOut(msg outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sentCount := 0
	droppedCount := 0
	for client := range h.clients {
		if client == msg.origin {
			continue
		}
		if client.Send(msg.data) {
			sentCount++
			continue
		}
		droppedCount++
		h.logger.Warn("message dropped - client buffer full",
			slog.String("connection_id", string(client.ID())))
	}
	if droppedCount > 0 {
		h.logger.Warn("broadcast partial failure",
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
}

// Subscribe adds a client to the room channel
func (h *Hub) Subscribe(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client subscribed",
		slog.String("connection_id", string(client.ID())),
		slog.Int("total_clients", clientCount))
}

// Unsubscribe removes a client from the room channel
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Info("client unsubscribed",
			slog.String("connection_id", string(client.ID())),
			slog.Int("total_clients", clientCount))
	}
}

// Broadcast queues a message for every subscriber except origin.
// origin may be nil when the event did not come from a connection.
func (h *Hub) Broadcast(origin *Client, data []byte) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- outbound{origin: origin, data: data}:
	default:
		h.logger.Warn("broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub. Subscribed clients stay connected.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of subscribed clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager manages hubs for all rooms
type HubManager struct {
	hubs   map[model.RoomID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomID]*Hub),
		logger: logger.With(slog.String("component", "realtime")),
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}

	hub := NewHub(roomID, m.logger)
	m.hubs[roomID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[roomID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		hub.Close()
		delete(m.hubs, roomID)
		m.logger.Info("hub removed", slog.String("room_id", string(roomID)))
	}
}

// HubCount returns the number of live hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}
