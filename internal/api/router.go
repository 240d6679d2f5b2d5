package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mcoot/tictactoe-rooms/internal/api/handler"
	"github.com/mcoot/tictactoe-rooms/internal/api/middleware"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
	"github.com/mcoot/tictactoe-rooms/internal/services/room"
	"github.com/mcoot/tictactoe-rooms/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Store       *room.Store
	Tracker     *session.Tracker
	Broadcaster *realtime.Broadcaster
	Gateway     *realtime.Gateway

	// AllowedOrigins lists browser origins allowed cross-origin access
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured.
// Every route is served at the root and again under /api.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	roomHandler := handler.NewRoomHandler(cfg.Store, cfg.Broadcaster)
	healthHandler := handler.NewHealthHandler(cfg.Store, cfg.Tracker)

	registerRoutes(r.PathPrefix("/api").Subrouter(), roomHandler, healthHandler, cfg.Gateway)
	registerRoutes(r, roomHandler, healthHandler, cfg.Gateway)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(r)
}

func registerRoutes(r *mux.Router, rooms *handler.RoomHandler, health *handler.HealthHandler, gateway *realtime.Gateway) {
	r.HandleFunc("/rooms", rooms.Create).Methods(http.MethodPost)
	r.HandleFunc("/rooms", rooms.Search).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}", rooms.Get).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{id}", rooms.Join).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}", rooms.Move).Methods(http.MethodPut)
	r.HandleFunc("/rooms/{id}", rooms.Leave).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{id}/restart", rooms.Restart).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{id}/players", rooms.UpdatePlayer).Methods(http.MethodPatch)

	r.HandleFunc("/health", health.Get).Methods(http.MethodGet)

	if gateway != nil {
		r.HandleFunc("/ws", gateway.ServeWS).Methods(http.MethodGet)
	}
}
