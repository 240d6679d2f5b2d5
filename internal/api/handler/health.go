package handler

import (
	"net/http"

	"github.com/mcoot/tictactoe-rooms/internal/api/response"
	"github.com/mcoot/tictactoe-rooms/internal/services/room"
	"github.com/mcoot/tictactoe-rooms/internal/services/session"
)

// HealthHandler reports liveness and load
type HealthHandler struct {
	store   *room.Store
	tracker *session.Tracker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *room.Store, tracker *session.Tracker) *HealthHandler {
	return &HealthHandler{store: store, tracker: tracker}
}

// Get handles GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:          "ok",
		RoomCount:       h.store.Count(r.Context()),
		ConnectionCount: h.tracker.Count(),
	})
}
