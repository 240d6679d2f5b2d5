package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tictactoe-rooms/internal/api"
	"github.com/mcoot/tictactoe-rooms/internal/api/apierr"
	"github.com/mcoot/tictactoe-rooms/internal/api/response"
	"github.com/mcoot/tictactoe-rooms/internal/factory"
	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
)

const (
	testOrigin = "http://localhost:5173"
	passcode   = "2468"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Store:          app.RoomStore,
		Tracker:        app.Tracker,
		Broadcaster:    app.Broadcaster,
		Gateway:        app.Gateway,
		AllowedOrigins: []string{testOrigin},
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createRoom(t *testing.T, name string) string {
	t.Helper()
	rr := ts.request(http.MethodPost, "/rooms", map[string]string{"name": name, "passcode": passcode})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var ref response.RoomRef
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ref))
	return ref.ID
}

func (ts *testServer) join(t *testing.T, roomID, playerID, username string) response.Join {
	t.Helper()
	rr := ts.request(http.MethodPost, "/rooms/"+roomID, map[string]string{
		"passcode": passcode,
		"playerId": playerID,
		"username": username,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.Join
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) move(roomID, playerID string, cell int) *httptest.ResponseRecorder {
	return ts.request(http.MethodPut, "/rooms/"+roomID, map[string]any{
		"passcode": passcode,
		"playerId": playerID,
		"move":     cell,
	})
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "Lobby")

	rr := ts.request(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.RoomCount)
	assert.Equal(t, 0, resp.ConnectionCount)
}

func TestRoutesServedUnderAPIPrefix(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/rooms", map[string]string{"name": "Prefixed", "passcode": passcode})
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.request(http.MethodGet, "/api/rooms?search=prefix", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Prefixed")

	rr = ts.request(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/rooms", map[string]string{"name": "Den", "passcode": passcode})
	assert.Equal(t, http.StatusCreated, rr.Code)

	var ref response.RoomRef
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ref))
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, "Den", ref.Name)
	assert.NotContains(t, rr.Body.String(), passcode)
}

func TestCreateRoomErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.createRoom(t, "Taken")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"missing name", map[string]string{"passcode": passcode}, http.StatusBadRequest, "MISSING_NAME"},
		{"short passcode", map[string]string{"name": "A", "passcode": "12"}, http.StatusBadRequest, "INVALID_PASSCODE_FORMAT"},
		{"letters in passcode", map[string]string{"name": "A", "passcode": "12ab"}, http.StatusBadRequest, "INVALID_PASSCODE_FORMAT"},
		{"duplicate name", map[string]string{"name": "Taken", "passcode": passcode}, http.StatusConflict, "ROOM_NAME_TAKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/rooms", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rr))
		})
	}
}

func TestCreateRoomMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestSearchRooms(t *testing.T) {
	ts := newTestServer(t)
	alpha := ts.createRoom(t, "Alpha Room")
	ts.createRoom(t, "Beta Room")
	ts.join(t, alpha, "p1", "Ada")

	rr := ts.request(http.MethodGet, "/rooms?search=ALPHA", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var rooms []response.RoomSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, alpha, rooms[0].ID)
	assert.Equal(t, 1, rooms[0].PlayerCount)
	assert.False(t, rooms[0].IsFull)

	rr = ts.request(http.MethodGet, "/rooms", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rooms))
	assert.Len(t, rooms, 2)
}

func TestSearchWithNoRoomsReturnsEmptyList(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/rooms", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetRoom(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Viewable")
	ts.join(t, id, "p1", "Ada")

	rr := ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "Viewable", room.Name)
	assert.Len(t, room.Board, 9)
	assert.Equal(t, "X", room.CurrentPlayer)
	assert.Nil(t, room.Winner)
	require.NotNil(t, room.Players["X"].PlayerID)
	assert.Equal(t, "p1", *room.Players["X"].PlayerID)
	assert.Equal(t, "Ada", room.Players["X"].Username)
	assert.Nil(t, room.Players["O"].PlayerID)
	assert.NotContains(t, rr.Body.String(), "passcode")
}

func TestGetRoomErrors(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Guarded")

	rr := ts.request(http.MethodGet, "/rooms/"+id+"?passcode=0000", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "INVALID_PASSCODE", errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/rooms/nope?passcode="+passcode, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ROOM_NOT_FOUND", errorCode(t, rr))
}

func TestJoinRoom(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Seats")

	first := ts.join(t, id, "p1", "Ada")
	assert.Equal(t, "X", first.Symbol)
	assert.Equal(t, "X", first.CurrentPlayer)

	second := ts.join(t, id, "p2", "Grace")
	assert.Equal(t, "O", second.Symbol)

	again := ts.join(t, id, "p1", "Ada")
	assert.Equal(t, "X", again.Symbol)

	rr := ts.request(http.MethodPost, "/rooms/"+id, map[string]string{"passcode": passcode, "playerId": "p3"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ROOM_FULL", errorCode(t, rr))
}

func TestJoinRoomRequiresPlayerID(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Anonymous")

	rr := ts.request(http.MethodPost, "/rooms/"+id, map[string]string{"passcode": passcode})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "MISSING_PLAYER_ID", errorCode(t, rr))
}

func TestPlayGameToWin(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Match")
	ts.join(t, id, "p1", "Ada")
	ts.join(t, id, "p2", "Grace")

	var rr *httptest.ResponseRecorder
	for i, cell := range []int{0, 3, 1, 4, 2} {
		player := "p1"
		if i%2 == 1 {
			player = "p2"
		}
		rr = ts.move(id, player, cell)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	var state response.GameState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.True(t, state.GameOver)
	require.NotNil(t, state.Winner)
	assert.Equal(t, "X", *state.Winner)
	assert.Nil(t, state.Board[8])

	rr = ts.move(id, "p2", 8)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "GAME_OVER", errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, 1, room.Players["X"].Score)
	assert.Equal(t, 0, room.Players["O"].Score)
}

func TestMoveErrors(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Strict")
	ts.join(t, id, "p1", "Ada")
	ts.join(t, id, "p2", "Grace")
	require.Equal(t, http.StatusOK, ts.move(id, "p1", 4).Code)

	tests := []struct {
		name       string
		player     string
		cell       int
		wantStatus int
		wantCode   string
	}{
		{"out of turn", "p1", 0, http.StatusForbidden, "NOT_YOUR_TURN"},
		{"not seated", "p9", 0, http.StatusForbidden, "NOT_SEATED"},
		{"occupied cell", "p2", 4, http.StatusBadRequest, "INVALID_MOVE"},
		{"off the board", "p2", 9, http.StatusBadRequest, "INVALID_MOVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.move(id, tt.player, tt.cell)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rr))
		})
	}

	rr := ts.request(http.MethodPut, "/rooms/"+id, map[string]string{"passcode": passcode, "playerId": "p2"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestRestartRoom(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Again")
	ts.join(t, id, "p1", "Ada")
	ts.join(t, id, "p2", "Grace")
	require.Equal(t, http.StatusOK, ts.move(id, "p1", 4).Code)

	rr := ts.request(http.MethodPost, "/rooms/"+id+"/restart", map[string]any{"passcode": passcode, "swapSeats": true})
	require.Equal(t, http.StatusOK, rr.Code)

	var state response.GameState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.False(t, state.GameOver)
	assert.Equal(t, "X", state.CurrentPlayer)
	for _, cell := range state.Board {
		assert.Nil(t, cell)
	}

	// Grace now plays X
	assert.Equal(t, http.StatusOK, ts.move(id, "p2", 0).Code)

	rr = ts.request(http.MethodPost, "/rooms/"+id+"/restart", map[string]any{"passcode": "9999"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLeaveRoom(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Exit")
	ts.join(t, id, "p1", "Ada")
	ts.join(t, id, "p2", "Grace")

	rr := ts.request(http.MethodDelete, "/rooms/"+id, map[string]string{"passcode": passcode, "playerId": "p1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	// The room stays while Grace is seated
	rr = ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodDelete, "/rooms/"+id, map[string]string{"passcode": passcode, "playerId": "p2"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdatePlayer(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Names")
	ts.join(t, id, "p1", "Ada")

	rr := ts.request(http.MethodPatch, "/rooms/"+id+"/players", map[string]string{
		"playerId": "p1",
		"username": "Countess",
		"symbol":   "X",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "Countess", room.Players["X"].Username)

	rr = ts.request(http.MethodPatch, "/rooms/"+id+"/players", map[string]string{
		"playerId": "p1",
		"username": "Imposter",
		"symbol":   "O",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "SEAT_NOT_HELD", errorCode(t, rr))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/rooms", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/rooms", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// wsClient is a websocket test peer
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dial(t *testing.T, server *httptest.Server) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn}
	env := c.expect(model.EventConnected)
	var payload realtime.ConnectionPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.ID)
	c.id = payload.ID
	return c
}

func (c *wsClient) send(event model.EventType, data any) {
	c.t.Helper()
	msg, err := realtime.Encode(event, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, msg))
}

func (c *wsClient) expect(event model.EventType) realtime.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	env, err := realtime.Decode(msg)
	require.NoError(c.t, err)
	require.Equal(c.t, event, env.Event, string(msg))
	return env
}

func TestWebsocketRoomFlow(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	id := ts.createRoom(t, "Live")
	hubClients := func() int {
		hub := ts.app.HubManager.GetHub(model.RoomID(id))
		if hub == nil {
			return 0
		}
		return hub.ClientCount()
	}

	// Both peers subscribe to the room
	ada := dial(t, server)
	ada.send(model.EventJoinRoom, id)
	require.Eventually(t, func() bool { return hubClients() == 1 }, 2*time.Second, 10*time.Millisecond)

	grace := dial(t, server)
	grace.send(model.EventJoinRoom, id)

	env := ada.expect(model.EventUserJoined)
	var joined realtime.ConnectionPayload
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, grace.id, joined.ID)

	// Seats are taken over REST, tied to the connections
	for _, seat := range []struct{ conn, player string }{{ada.id, "p1"}, {grace.id, "p2"}} {
		rr := ts.request(http.MethodPost, "/rooms/"+id, map[string]string{
			"passcode":     passcode,
			"playerId":     seat.player,
			"connectionId": seat.conn,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	// A REST move reaches every subscriber
	require.Equal(t, http.StatusOK, ts.move(id, "p1", 4).Code)
	env = grace.expect(model.EventMoveMade)
	var state realtime.MoveMadePayload
	require.NoError(t, json.Unmarshal(env.Data, &state))
	require.NotNil(t, state.Board[4])
	assert.Equal(t, "X", *state.Board[4])
	assert.Equal(t, "O", state.CurrentPlayer)
	ada.expect(model.EventMoveMade)

	// Grace drops and her seat is released
	require.NoError(t, grace.conn.Close())
	env = ada.expect(model.EventUserLeft)
	var left realtime.ConnectionPayload
	require.NoError(t, json.Unmarshal(env.Data, &left))
	assert.Equal(t, grace.id, left.ID)

	assert.Eventually(t, func() bool {
		rr := ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
		var room response.Room
		if json.Unmarshal(rr.Body.Bytes(), &room) != nil {
			return false
		}
		return room.PlayerCount == 1 && room.Players["O"].PlayerID == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketJoinUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	c := dial(t, server)
	c.send(model.EventJoinRoom, "missing")

	env := c.expect(model.EventError)
	var payload realtime.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "ROOM_NOT_FOUND", payload.Code)
}

func TestWebsocketUnknownEvent(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	c := dial(t, server)
	c.send("dance", nil)

	env := c.expect(model.EventError)
	var payload realtime.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "UNKNOWN_EVENT", payload.Code)
}

func (ts *testServer) health(t *testing.T) response.Health {
	t.Helper()
	rr := ts.request(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (ts *testServer) room(t *testing.T, id string) response.Room {
	t.Helper()
	rr := ts.request(http.MethodGet, "/rooms/"+id+"?passcode="+passcode, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var room response.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	return room
}

func (ts *testServer) waitForSubscribers(t *testing.T, id string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		hub := ts.app.HubManager.GetHub(model.RoomID(id))
		return hub != nil && hub.ClientCount() == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealthAfterJoinAndLeaveWithUnknownConnection(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createRoom(t, "Ghosts")

	body := map[string]string{"passcode": passcode, "playerId": "p1", "connectionId": "ghost"}
	rr := ts.request(http.MethodPost, "/rooms/"+id, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 0, ts.health(t).ConnectionCount)

	rr = ts.request(http.MethodDelete, "/rooms/"+id, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	health := ts.health(t)
	assert.Equal(t, 0, health.RoomCount)
	assert.Equal(t, 0, health.ConnectionCount)
}

func TestHealthCountsRoomConnections(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()
	id := ts.createRoom(t, "Counted")

	c := dial(t, server)
	c.send(model.EventJoinRoom, id)
	require.Eventually(t, func() bool { return ts.health(t).ConnectionCount == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.conn.Close())
	assert.Eventually(t, func() bool { return ts.health(t).ConnectionCount == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketPlayerInfoRenamesAndBindsSeat(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()
	id := ts.createRoom(t, "Names")
	ts.join(t, id, "p1", "Ada")
	ts.join(t, id, "p2", "Grace")

	watcher := dial(t, server)
	watcher.send(model.EventJoinRoom, id)
	ts.waitForSubscribers(t, id, 1)
	ada := dial(t, server)
	ada.send(model.EventJoinRoom, id)
	watcher.expect(model.EventUserJoined)

	ada.send(model.EventPlayerInfo, realtime.PlayerInfoPayload{
		RoomID: id, PlayerID: "p1", Username: "Countess", Symbol: "X",
	})
	env := watcher.expect(model.EventPlayerInfo)
	var info realtime.PlayerInfoPayload
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "Countess", info.Username)
	assert.Equal(t, "X", info.Symbol)

	// The connection now holds the seat, so dropping it releases X
	require.NoError(t, ada.conn.Close())
	watcher.expect(model.EventUserLeft)
	assert.Eventually(t, func() bool {
		room := ts.room(t, id)
		return room.PlayerCount == 1 && room.Players["X"].PlayerID == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketPlayerInfoForOtherRoomIsRejected(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()
	joined := ts.createRoom(t, "Joined")
	other := ts.createRoom(t, "Other")
	ts.join(t, other, "p1", "Ada")
	rr := ts.request(http.MethodPost, "/rooms/"+other, map[string]string{
		"passcode": passcode, "playerId": "p2", "connectionId": "tab1",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	c := dial(t, server)
	c.send(model.EventJoinRoom, joined)
	c.send(model.EventPlayerInfo, realtime.PlayerInfoPayload{
		RoomID: other, PlayerID: "p2", Symbol: "O",
	})

	env := c.expect(model.EventError)
	var payload realtime.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "NOT_IN_ROOM", payload.Code)

	require.NoError(t, c.conn.Close())
	require.Eventually(t, func() bool { return ts.health(t).ConnectionCount == 0 }, 2*time.Second, 10*time.Millisecond)

	// p2 holds no other connection, so leaving with tab1 frees the seat
	rr = ts.request(http.MethodDelete, "/rooms/"+other, map[string]string{
		"passcode": passcode, "playerId": "p2", "connectionId": "tab1",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	room := ts.room(t, other)
	assert.Equal(t, 1, room.PlayerCount)
	assert.Nil(t, room.Players["O"].PlayerID)
}

func TestWebsocketPlayerInfoBeforeJoinIsRejected(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()
	id := ts.createRoom(t, "Early")
	ts.join(t, id, "p1", "Ada")

	c := dial(t, server)
	c.send(model.EventPlayerInfo, realtime.PlayerInfoPayload{RoomID: id, PlayerID: "p1", Symbol: "X"})

	env := c.expect(model.EventError)
	var payload realtime.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "NOT_IN_ROOM", payload.Code)
	assert.Equal(t, 0, ts.health(t).ConnectionCount)
}
