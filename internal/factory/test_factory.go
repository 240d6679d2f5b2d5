package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tictactoe-rooms/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe-rooms/internal/realtime/redismirror"
	"github.com/mcoot/tictactoe-rooms/internal/services/room"
	"github.com/mcoot/tictactoe-rooms/internal/storage/memory"
	"github.com/mcoot/tictactoe-rooms/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestConfig returns the factory configuration used by test apps.
// Passcodes hash at the minimum bcrypt cost so tests stay fast.
func TestConfig() Config {
	return Config{
		RoomConfig: room.Config{
			InactivityTimeout: 5 * time.Minute,
			SweepInterval:     time.Minute,
			PasscodeCost:      bcrypt.MinCost,
		},
		AllowedOrigins: []string{"*"},
	}
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return newTestApp(nil)
}

// NewTestAppWithMirror creates a test App that mirrors room events through
// the given mirror, typically one backed by miniredis
func NewTestAppWithMirror(mirror *redismirror.Mirror) *TestApp {
	return newTestApp(mirror)
}

func newTestApp(mirror *redismirror.Mirror) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, mirror, TestConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
