package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	PlayerID   string
	PlayerFile string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("TTT_SERVER", "http://localhost:8080"),
		PlayerID:   os.Getenv("TTT_PLAYER"),
		PlayerFile: getEnvOrDefault("TTT_PLAYER_FILE", defaultPlayerFile()),
		Output:     "text",
		Verbose:    false,
	}
}

// LoadPlayerID resolves the player identity. A flag or env value wins,
// then the player file. With neither, a new id is generated and saved so
// later invocations reclaim the same seats.
func (c *Config) LoadPlayerID() error {
	if c.PlayerID != "" {
		return nil
	}

	data, err := os.ReadFile(c.PlayerFile)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			c.PlayerID = id
			return nil
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	return c.SavePlayerID(uuid.NewString())
}

// SavePlayerID saves the player id to the player file
func (c *Config) SavePlayerID(id string) error {
	c.PlayerID = id

	dir := filepath.Dir(c.PlayerFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.PlayerFile, []byte(id), 0600)
}

func defaultPlayerFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tictactoe/player"
	}
	return filepath.Join(home, ".tictactoe", "player")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
