package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// ClientConfig holds per-connection limits and keepalive timing
type ClientConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration
	// Time allowed to read the next pong from the peer
	PongWait time.Duration
	// Time between pings, must be less than PongWait
	PingPeriod time.Duration
	// Largest inbound frame accepted
	MaxMessageSize int64
	// Outbound messages buffered before drops start
	SendBufferSize int
	// Inbound message rate allowed per connection
	MessagesPerSecond float64
	Burst             int
}

// DefaultClientConfig returns the production connection settings
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteWait:         10 * time.Second,
		PongWait:          60 * time.Second,
		PingPeriod:        54 * time.Second,
		MaxMessageSize:    4096,
		SendBufferSize:    64,
		MessagesPerSecond: 10,
		Burst:             20,
	}
}

// MessageHandler receives the decoded traffic of a client
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, env Envelope)
	HandleDisconnect(ctx context.Context, client *Client)
}

// Client is one websocket connection
type Client struct {
	id      model.ConnectionID
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	cfg     ClientConfig
	logger  *slog.Logger

	connectedAt time.Time
	closeOnce   sync.Once

	mu   sync.Mutex
	room model.RoomID // room channel currently subscribed, if any
}

// NewClient wraps an upgraded connection
func NewClient(id model.ConnectionID, conn *websocket.Conn, cfg ClientConfig, logger *slog.Logger) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, cfg.SendBufferSize),
		done:        make(chan struct{}),
		limiter:     rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst),
		cfg:         cfg,
		logger:      logger.With(slog.String("connection_id", string(id))),
		connectedAt: time.Now(),
	}
}

// ID returns the connection id
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Room returns the room this client is subscribed to, or ""
func (c *Client) Room() model.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(room model.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// Send queues a message without blocking. It returns false when the
// buffer is full or the client has closed.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// SendEvent encodes and queues an event for this client only
func (c *Client) SendEvent(event model.EventType, data any) bool {
	msg, err := Encode(event, data)
	if err != nil {
		c.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return false
	}
	return c.Send(msg)
}

// Close stops the write pump, which closes the connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Serve pumps the connection until it fails or is closed.
// It blocks; handler.HandleDisconnect runs before it returns.
func (c *Client) Serve(ctx context.Context, handler MessageHandler) {
	go c.writePump()
	c.readPump(ctx, handler)
}

func (c *Client) readPump(ctx context.Context, handler MessageHandler) {
	defer func() {
		c.Close()
		handler.HandleDisconnect(ctx, c)
		_ = c.conn.Close()
		c.logger.Info("connection closed",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", slog.String("error", err.Error()))
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if !c.limiter.Allow() {
			c.SendEvent(model.EventError, ErrorPayload{Code: "RATE_LIMITED", Message: "too many messages"})
			continue
		}

		env, err := Decode(message)
		if err != nil {
			c.SendEvent(model.EventError, ErrorPayload{Code: "INVALID_MESSAGE", Message: err.Error()})
			continue
		}
		handler.HandleMessage(ctx, c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
