package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictactoe-rooms/internal/api/apierr"
	"github.com/mcoot/tictactoe-rooms/internal/api/request"
	"github.com/mcoot/tictactoe-rooms/internal/api/response"
	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
	"github.com/mcoot/tictactoe-rooms/internal/services/room"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	store       *room.Store
	broadcaster *realtime.Broadcaster
}

// NewRoomHandler creates a new room handler. broadcaster may be nil.
func NewRoomHandler(store *room.Store, broadcaster *realtime.Broadcaster) *RoomHandler {
	return &RoomHandler{
		store:       store,
		broadcaster: broadcaster,
	}
}

func roomID(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["id"])
}

// Create handles POST /rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ref, err := h.store.Create(r.Context(), req.Name, req.Passcode)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomRefFromModel(ref))
}

// Search handles GET /rooms?search=term
func (h *RoomHandler) Search(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomSummariesFromModel(rooms))
}

// Get handles GET /rooms/{id}?passcode=
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.store.Get(r.Context(), roomID(r), r.URL.Query().Get("passcode"))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(view))
}

// Join handles POST /rooms/{id}
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.store.Join(r.Context(), roomID(r), req.Passcode,
		model.PlayerID(req.PlayerID), req.Username, model.ConnectionID(req.ConnectionID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinFromModel(result))
}

// Move handles PUT /rooms/{id}
func (h *RoomHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Move == nil {
		WriteError(w, apierr.NewInvalidRequestError("move is required"))
		return
	}

	id := roomID(r)
	state, err := h.store.Move(r.Context(), id, req.Passcode, model.PlayerID(req.PlayerID), *req.Move)
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.MoveMade(r.Context(), id, nil, state)
	}

	response.JSON(w, http.StatusOK, response.GameStateFromModel(state))
}

// Restart handles POST /rooms/{id}/restart
func (h *RoomHandler) Restart(w http.ResponseWriter, r *http.Request) {
	var req request.RestartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := roomID(r)
	state, err := h.store.Restart(r.Context(), id, req.Passcode, req.SwapSeats)
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.GameRestarted(r.Context(), id, nil, state)
	}

	response.JSON(w, http.StatusOK, response.GameStateFromModel(state))
}

// Leave handles DELETE /rooms/{id}
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req request.LeaveRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.store.Leave(r.Context(), roomID(r), req.Passcode, model.PlayerID(req.PlayerID), model.ConnectionID(req.ConnectionID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Success{Success: true})
}

// UpdatePlayer handles PATCH /rooms/{id}/players
func (h *RoomHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlayerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := roomID(r)
	playerID := model.PlayerID(req.PlayerID)
	symbol := model.Symbol(req.Symbol)
	if err := h.store.UpdatePlayerInfo(r.Context(), id, playerID, req.Username, symbol); err != nil {
		WriteError(w, err)
		return
	}

	if h.broadcaster != nil {
		username := req.Username
		if username == "" {
			username = model.DefaultUsername(symbol)
		}
		h.broadcaster.PlayerInfo(r.Context(), id, nil, playerID, username, symbol)
	}

	response.JSON(w, http.StatusOK, response.Success{Success: true})
}
