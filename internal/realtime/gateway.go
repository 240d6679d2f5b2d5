package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/services/session"
)

// Rooms is the slice of the room store the gateway needs. Connections the
// gateway tracks are trusted, so none of these calls take a passcode.
type Rooms interface {
	RegisterConnection(ctx context.Context, id model.RoomID, connectionID model.ConnectionID, playerID model.PlayerID) error
	RemoveConnection(ctx context.Context, id model.RoomID, connectionID model.ConnectionID) error
	Disconnect(ctx context.Context, id model.RoomID, connectionID model.ConnectionID) error
	UpdatePlayerInfo(ctx context.Context, id model.RoomID, playerID model.PlayerID, username string, symbol model.Symbol) error
	State(ctx context.Context, id model.RoomID) (*model.GameState, error)
}

// GatewayConfig holds websocket endpoint settings
type GatewayConfig struct {
	// AllowedOrigins lists browser origins allowed to connect. "*" allows all.
	AllowedOrigins []string
	Client         ClientConfig
}

// Gateway is the websocket entry point. It registers each connection with
// the room store, which records it in the session tracker, and relays
// committed state to the other members of a room.
type Gateway struct {
	rooms       Rooms
	tracker     *session.Tracker
	hubManager  *HubManager
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
	cfg         GatewayConfig
	logger      *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewGateway creates a new Gateway
func NewGateway(
	rooms Rooms,
	tracker *session.Tracker,
	hubManager *HubManager,
	broadcaster *Broadcaster,
	cfg GatewayConfig,
	logger *slog.Logger,
) *Gateway {
	g := &Gateway{
		rooms:       rooms,
		tracker:     tracker,
		hubManager:  hubManager,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "gateway")),
		clients:     make(map[*Client]struct{}),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

// ServeWS upgrades the request and serves the connection until it closes
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	id := model.ConnectionID(uuid.NewString())
	client := NewClient(id, conn, g.cfg.Client, g.logger)
	g.logger.Info("connection opened",
		slog.String("connection_id", string(id)),
		slog.String("remote_addr", r.RemoteAddr))

	g.mu.Lock()
	g.clients[client] = struct{}{}
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.clients, client)
		g.mu.Unlock()
	}()

	client.SendEvent(model.EventConnected, ConnectionPayload{ID: string(id)})
	client.Serve(r.Context(), g)
}

// CloseAll closes every open connection, for server shutdown
func (g *Gateway) CloseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for client := range g.clients {
		client.Close()
	}
	if len(g.clients) > 0 {
		g.logger.Info("closing connections", slog.Int("count", len(g.clients)))
	}
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Not a browser
		return true
	}
	for _, allowed := range g.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleMessage dispatches one inbound event
func (g *Gateway) HandleMessage(ctx context.Context, client *Client, env Envelope) {
	switch env.Event {
	case model.EventJoinRoom:
		var roomID string
		if !g.decode(client, env, &roomID) {
			return
		}
		g.joinRoom(ctx, client, model.RoomID(roomID))

	case model.EventLeaveRoom:
		var roomID string
		if !g.decode(client, env, &roomID) {
			return
		}
		g.leaveRoom(ctx, client, model.RoomID(roomID))

	case model.EventPlayerInfo:
		var payload PlayerInfoPayload
		if !g.decode(client, env, &payload) {
			return
		}
		g.playerInfo(ctx, client, payload)

	case model.EventMakeMove, model.EventGameRestart:
		var payload RoomPayload
		if !g.decode(client, env, &payload) {
			return
		}
		g.relayState(ctx, client, model.RoomID(payload.RoomID), env.Event)

	default:
		client.SendEvent(model.EventError, ErrorPayload{
			Code:    "UNKNOWN_EVENT",
			Message: "unknown event " + string(env.Event),
		})
	}
}

// HandleDisconnect runs the best-effort leave for a dropped connection.
// It releases both the room the client joined and any room the tracker
// still binds the connection to.
func (g *Gateway) HandleDisconnect(ctx context.Context, client *Client) {
	var rooms []model.RoomID
	if roomID := client.Room(); roomID != "" {
		if hub := g.hubManager.GetHub(roomID); hub != nil {
			hub.Unsubscribe(client)
		}
		client.setRoom("")
		rooms = append(rooms, roomID)
	}
	if binding, ok := g.tracker.Lookup(client.ID()); ok && (len(rooms) == 0 || binding.RoomID != rooms[0]) {
		rooms = append(rooms, binding.RoomID)
	}

	for _, roomID := range rooms {
		g.broadcaster.UserLeft(ctx, roomID, client, client.ID())
		if err := g.rooms.Disconnect(ctx, roomID, client.ID()); err != nil && !errors.Is(err, model.ErrRoomNotFound) {
			g.logger.Error("failed to release connection",
				slog.String("room_id", string(roomID)),
				slog.String("connection_id", string(client.ID())),
				slog.String("error", err.Error()))
		}
	}
	g.tracker.Unbind(client.ID())
}

func (g *Gateway) joinRoom(ctx context.Context, client *Client, roomID model.RoomID) {
	current := client.Room()
	if current == roomID {
		return
	}
	if current != "" {
		g.leaveRoom(ctx, client, current)
	}

	if err := g.rooms.RegisterConnection(ctx, roomID, client.ID(), ""); err != nil {
		g.sendError(client, err)
		return
	}
	g.hubManager.GetOrCreateHub(roomID).Subscribe(client)
	client.setRoom(roomID)

	g.broadcaster.UserJoined(ctx, roomID, client, client.ID())
}

func (g *Gateway) leaveRoom(ctx context.Context, client *Client, roomID model.RoomID) {
	if client.Room() != roomID {
		return
	}
	if hub := g.hubManager.GetHub(roomID); hub != nil {
		hub.Unsubscribe(client)
	}
	client.setRoom("")

	if err := g.rooms.RemoveConnection(ctx, roomID, client.ID()); err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		g.logger.Error("failed to remove connection",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()))
	}

	g.broadcaster.UserLeft(ctx, roomID, client, client.ID())
}

// playerInfo names the player a connection speaks for. It only applies to
// the room the connection joined, and binds the connection to the player
// once the seat is confirmed.
func (g *Gateway) playerInfo(ctx context.Context, client *Client, payload PlayerInfoPayload) {
	roomID := client.Room()
	if roomID == "" || (payload.RoomID != "" && model.RoomID(payload.RoomID) != roomID) {
		g.sendError(client, model.ErrNotInRoom)
		return
	}
	playerID := model.PlayerID(payload.PlayerID)
	symbol := model.Symbol(payload.Symbol)
	if playerID == "" {
		g.sendError(client, model.ErrMissingPlayerID)
		return
	}

	if err := g.rooms.UpdatePlayerInfo(ctx, roomID, playerID, payload.Username, symbol); err != nil {
		g.sendError(client, err)
		return
	}
	if err := g.rooms.RegisterConnection(ctx, roomID, client.ID(), playerID); err != nil {
		g.sendError(client, err)
		return
	}

	username := payload.Username
	if username == "" {
		username = model.DefaultUsername(symbol)
	}
	g.broadcaster.PlayerInfo(ctx, roomID, client, playerID, username, symbol)
}

// relayState rebroadcasts the committed state after a client reports a
// move or restart it already made over REST
func (g *Gateway) relayState(ctx context.Context, client *Client, roomID model.RoomID, event model.EventType) {
	state, err := g.rooms.State(ctx, roomID)
	if err != nil {
		g.sendError(client, err)
		return
	}
	if event == model.EventGameRestart {
		g.broadcaster.GameRestarted(ctx, roomID, client, state)
		return
	}
	g.broadcaster.MoveMade(ctx, roomID, client, state)
}

func (g *Gateway) decode(client *Client, env Envelope, v any) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		client.SendEvent(model.EventError, ErrorPayload{
			Code:    "INVALID_MESSAGE",
			Message: "malformed " + string(env.Event) + " payload",
		})
		return false
	}
	return true
}

func (g *Gateway) sendError(client *Client, err error) {
	var modelErr *model.Error
	if errors.As(err, &modelErr) {
		client.SendEvent(model.EventError, ErrorPayload{Code: modelErr.Code, Message: modelErr.Message})
		return
	}
	g.logger.Error("realtime request failed",
		slog.String("connection_id", string(client.ID())),
		slog.String("error", err.Error()))
	client.SendEvent(model.EventError, ErrorPayload{Code: "INTERNAL_ERROR", Message: "internal server error"})
}
