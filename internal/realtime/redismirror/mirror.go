package redismirror

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
)

// Mirror copies room events to Redis: each event is published on the room's
// channel and appended to a short capped history list
type Mirror struct {
	client *redis.Client
	cfg    Config
}

// Ensure Mirror implements the publisher interface
var _ realtime.Publisher = (*Mirror)(nil)

// New connects to Redis and verifies the connection
func New(cfg Config) (*Mirror, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Mirror{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Mirror with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Mirror {
	return &Mirror{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (m *Mirror) Close() error {
	return m.client.Close()
}

// Publish sends the event to the room channel and records it in the history
func (m *Mirror) Publish(ctx context.Context, roomID model.RoomID, message []byte) error {
	key := historyKey(roomID)

	pipe := m.client.Pipeline()
	pipe.Publish(ctx, ChannelName(roomID), message)
	pipe.RPush(ctx, key, message)
	if m.cfg.HistoryLength > 0 {
		pipe.LTrim(ctx, key, -m.cfg.HistoryLength, -1)
	}
	if m.cfg.HistoryTTL > 0 {
		pipe.Expire(ctx, key, m.cfg.HistoryTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// History returns the recorded events of a room, oldest first
func (m *Mirror) History(ctx context.Context, roomID model.RoomID) ([][]byte, error) {
	values, err := m.client.LRange(ctx, historyKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	events := make([][]byte, len(values))
	for i, v := range values {
		events[i] = []byte(v)
	}
	return events, nil
}

// Forget drops the history of a room that no longer exists
func (m *Mirror) Forget(ctx context.Context, roomID model.RoomID) error {
	return m.client.Del(ctx, historyKey(roomID)).Err()
}

// Subscribe listens on a room's channel. The caller closes the returned
// subscription.
func (m *Mirror) Subscribe(ctx context.Context, roomID model.RoomID) *redis.PubSub {
	return m.client.Subscribe(ctx, ChannelName(roomID))
}
