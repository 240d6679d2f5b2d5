package factory

import (
	"context"
	"io"
	"log/slog"

	"github.com/mcoot/tictactoe-rooms/internal/dependencies/clock"
	"github.com/mcoot/tictactoe-rooms/internal/dependencies/random"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
	"github.com/mcoot/tictactoe-rooms/internal/realtime/redismirror"
	"github.com/mcoot/tictactoe-rooms/internal/services/room"
	"github.com/mcoot/tictactoe-rooms/internal/services/session"
	"github.com/mcoot/tictactoe-rooms/internal/storage"
	"github.com/mcoot/tictactoe-rooms/internal/storage/memory"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	RoomStore *room.Store
	Tracker   *session.Tracker

	// Realtime
	HubManager  *realtime.HubManager
	Broadcaster *realtime.Broadcaster
	Gateway     *realtime.Gateway
	// Mirror is nil unless Redis is configured
	Mirror *redismirror.Mirror

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// RoomConfig holds room lifecycle settings (optional)
	// If zero value, defaults to room.DefaultConfig()
	RoomConfig room.Config
	// ClientConfig holds websocket connection settings (optional)
	// If zero value, defaults to realtime.DefaultClientConfig()
	ClientConfig realtime.ClientConfig
	// BroadcasterConfig holds event mirror queue settings (optional)
	// If zero value, defaults to realtime.DefaultBroadcasterConfig()
	BroadcasterConfig realtime.BroadcasterConfig
	// AllowedOrigins lists browser origins allowed to open websockets
	AllowedOrigins []string
	// RedisConfig enables the Redis event mirror when set
	RedisConfig *redismirror.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var mirror *redismirror.Mirror
	if cfg.RedisConfig != nil {
		var err error
		mirror, err = redismirror.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		logger.Info("redis event mirror enabled")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	if cfg.RoomConfig == (room.Config{}) {
		cfg.RoomConfig = room.DefaultConfig()
	}

	app := newWithDependencies(memory.New(), clk, rnd, mirror, cfg, logger)
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	mirror *redismirror.Mirror,
	cfg Config,
	logger *slog.Logger,
) *App {
	if cfg.ClientConfig == (realtime.ClientConfig{}) {
		cfg.ClientConfig = realtime.DefaultClientConfig()
	}

	// A nil *Mirror must not become a non-nil Publisher
	var publisher realtime.Publisher
	if mirror != nil {
		publisher = mirror
	}

	tracker := session.NewTracker(logger)
	roomStore := room.NewStore(store, tracker, clk, rnd, cfg.RoomConfig, logger)
	hubManager := realtime.NewHubManager(logger)
	broadcaster := realtime.NewBroadcaster(hubManager, publisher, cfg.BroadcasterConfig, logger)
	gateway := realtime.NewGateway(roomStore, tracker, hubManager, broadcaster, realtime.GatewayConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Client:         cfg.ClientConfig,
	}, logger)

	// Tear down per-room resources when a room goes away
	roomStore.OnDelete(hubManager.RemoveHub)
	roomStore.OnDelete(broadcaster.Forget)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		RoomStore:   roomStore,
		Tracker:     tracker,
		HubManager:  hubManager,
		Broadcaster: broadcaster,
		Gateway:     gateway,
		Mirror:      mirror,
		logger:      logger,
	}
}

// Start launches background work: the room inactivity sweep
func (a *App) Start(ctx context.Context) {
	a.RoomStore.Start(ctx)
}

// Close stops background work and releases connections
func (a *App) Close() error {
	a.RoomStore.Stop()
	a.Gateway.CloseAll()
	a.Broadcaster.Close()
	if a.Mirror != nil {
		return a.Mirror.Close()
	}
	return nil
}
