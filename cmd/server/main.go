package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/tictactoe-rooms/internal/api"
	"github.com/mcoot/tictactoe-rooms/internal/config"
	"github.com/mcoot/tictactoe-rooms/internal/factory"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
	"github.com/mcoot/tictactoe-rooms/internal/realtime/redismirror"
	"github.com/mcoot/tictactoe-rooms/internal/services/room"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	clientCfg := realtime.DefaultClientConfig()
	clientCfg.MessagesPerSecond = cfg.MessagesPerSecond
	factoryCfg := factory.Config{
		Logger: logger,
		RoomConfig: room.Config{
			InactivityTimeout: cfg.InactivityTimeout,
			SweepInterval:     cfg.SweepInterval,
			PasscodeCost:      cfg.PasscodeCost,
		},
		ClientConfig:   clientCfg,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	// Mirror room events to Redis if configured
	if cfg.RedisURL != "" {
		redisCfg := redismirror.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Store:          app.RoomStore,
		Tracker:        app.Tracker,
		Broadcaster:    app.Broadcaster,
		Gateway:        app.Gateway,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)
	server.OnShutdown(app.Gateway.CloseAll)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.Start(ctx)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to release resources", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
