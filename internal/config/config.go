package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is the server configuration read from the environment
type Config struct {
	Port           int
	AllowedOrigins []string
	LogLevel       slog.Level

	InactivityTimeout time.Duration
	SweepInterval     time.Duration
	PasscodeCost      int

	// MessagesPerSecond limits inbound websocket events per connection
	MessagesPerSecond float64

	// RedisURL enables the event mirror when set
	RedisURL string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:              8080,
		AllowedOrigins:    []string{"http://localhost:5173"},
		LogLevel:          slog.LevelInfo,
		InactivityTimeout: 5 * time.Minute,
		SweepInterval:     time.Minute,
		PasscodeCost:      bcrypt.DefaultCost,
		MessagesPerSecond: 10,
	}
}

// Load reads a .env file from the working directory, if there is one,
// then builds the configuration from the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a variable lookup function
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if v := getenv("PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(v); err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
	}

	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q", v)
		}
	}

	if cfg.InactivityTimeout, err = duration(getenv, "INACTIVITY_TIMEOUT", cfg.InactivityTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = duration(getenv, "SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return Config{}, err
	}

	if v := getenv("PASSCODE_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("invalid PASSCODE_COST %q", v)
		}
		cfg.PasscodeCost = cost
	}

	if v := getenv("WS_MESSAGES_PER_SECOND"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("invalid WS_MESSAGES_PER_SECOND %q", v)
		}
		cfg.MessagesPerSecond = rate
	}

	cfg.RedisURL = getenv("REDIS_URL")
	return cfg, nil
}

func duration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
