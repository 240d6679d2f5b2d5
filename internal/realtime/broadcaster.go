package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tictactoe-rooms/internal/api/response"
	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// Publisher receives a copy of every room event, for observers outside
// this process, and is told when a room is gone
type Publisher interface {
	Publish(ctx context.Context, roomID model.RoomID, message []byte) error
	Forget(ctx context.Context, roomID model.RoomID) error
}

// BroadcasterConfig holds settings for mirroring events to a Publisher
type BroadcasterConfig struct {
	// MirrorQueueSize bounds the events waiting for the publisher.
	// Events beyond it are dropped.
	MirrorQueueSize int
	// MirrorTimeout bounds each publisher call
	MirrorTimeout time.Duration
}

// DefaultBroadcasterConfig returns the default mirror settings
func DefaultBroadcasterConfig() BroadcasterConfig {
	return BroadcasterConfig{
		MirrorQueueSize: 256,
		MirrorTimeout:   2 * time.Second,
	}
}

type mirrorJob struct {
	ctx    context.Context
	roomID model.RoomID
	event  model.EventType
	data   []byte
	forget bool
}

// Broadcaster sends typed room events to subscribed clients. Events are
// also handed to the publisher, when there is one, through a bounded queue
// drained by a single worker, so a slow publisher never holds up callers.
type Broadcaster struct {
	hubManager *HubManager
	publisher  Publisher
	cfg        BroadcasterConfig
	logger     *slog.Logger

	queue     chan mirrorJob
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewBroadcaster creates a new Broadcaster. publisher may be nil.
func NewBroadcaster(hubManager *HubManager, publisher Publisher, cfg BroadcasterConfig, logger *slog.Logger) *Broadcaster {
	defaults := DefaultBroadcasterConfig()
	if cfg.MirrorQueueSize <= 0 {
		cfg.MirrorQueueSize = defaults.MirrorQueueSize
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = defaults.MirrorTimeout
	}
	b := &Broadcaster{
		hubManager: hubManager,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "broadcaster")),
	}
	if publisher != nil {
		b.queue = make(chan mirrorJob, cfg.MirrorQueueSize)
		b.stop = make(chan struct{})
		b.done = make(chan struct{})
		go b.runMirror()
	}
	return b
}

// Close stops the mirror worker once the queued events are handed over.
// Draining stops at the first publisher failure.
func (b *Broadcaster) Close() {
	if b.publisher == nil {
		return
	}
	b.closeOnce.Do(func() {
		close(b.stop)
	})
	<-b.done
}

// Forget tells the publisher a room is gone. It is queued behind the
// room's earlier events.
func (b *Broadcaster) Forget(roomID model.RoomID) {
	b.enqueue(mirrorJob{ctx: context.Background(), roomID: roomID, forget: true})
}

// UserJoined tells the room that a connection subscribed
func (b *Broadcaster) UserJoined(ctx context.Context, roomID model.RoomID, origin *Client, connectionID model.ConnectionID) {
	b.send(ctx, roomID, origin, model.EventUserJoined, ConnectionPayload{ID: string(connectionID)})
}

// UserLeft tells the room that a connection left or dropped
func (b *Broadcaster) UserLeft(ctx context.Context, roomID model.RoomID, origin *Client, connectionID model.ConnectionID) {
	b.send(ctx, roomID, origin, model.EventUserLeft, ConnectionPayload{ID: string(connectionID)})
}

// PlayerInfo relays a seat's player name
func (b *Broadcaster) PlayerInfo(ctx context.Context, roomID model.RoomID, origin *Client, playerID model.PlayerID, username string, symbol model.Symbol) {
	b.send(ctx, roomID, origin, model.EventPlayerInfo, PlayerInfoPayload{
		PlayerID: string(playerID),
		Username: username,
		Symbol:   string(symbol),
	})
}

// MoveMade relays the committed state after a move
func (b *Broadcaster) MoveMade(ctx context.Context, roomID model.RoomID, origin *Client, state *model.GameState) {
	b.send(ctx, roomID, origin, model.EventMoveMade, MoveMadePayload(response.GameStateFromModel(state)))
}

// GameRestarted relays the fresh board after a restart
func (b *Broadcaster) GameRestarted(ctx context.Context, roomID model.RoomID, origin *Client, state *model.GameState) {
	b.send(ctx, roomID, origin, model.EventGameRestarted, GameRestartedPayload{
		Board:         response.Board(state.Board),
		CurrentPlayer: string(state.CurrentPlayer),
	})
}

func (b *Broadcaster) send(ctx context.Context, roomID model.RoomID, origin *Client, event model.EventType, data any) {
	msg, err := Encode(event, data)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("room_id", string(roomID)),
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return
	}

	if hub := b.hubManager.GetHub(roomID); hub != nil {
		hub.Broadcast(origin, msg)
	}

	b.enqueue(mirrorJob{
		ctx:    context.WithoutCancel(ctx),
		roomID: roomID,
		event:  event,
		data:   msg,
	})
}

func (b *Broadcaster) enqueue(job mirrorJob) {
	if b.publisher == nil {
		return
	}
	select {
	case <-b.stop:
		return
	default:
	}
	select {
	case b.queue <- job:
	default:
		b.logger.Warn("mirror dropped - queue full",
			slog.String("room_id", string(job.roomID)),
			slog.String("event", string(job.event)))
	}
}

func (b *Broadcaster) runMirror() {
	defer close(b.done)
	for {
		select {
		case job := <-b.queue:
			_ = b.mirror(job)

		case <-b.stop:
			b.drain()
			return
		}
	}
}

func (b *Broadcaster) drain() {
	for {
		select {
		case job := <-b.queue:
			if err := b.mirror(job); err != nil {
				if remaining := len(b.queue); remaining > 0 {
					b.logger.Warn("mirror queue abandoned", slog.Int("dropped", remaining))
				}
				return
			}
		default:
			return
		}
	}
}

func (b *Broadcaster) mirror(job mirrorJob) error {
	ctx, cancel := context.WithTimeout(job.ctx, b.cfg.MirrorTimeout)
	defer cancel()

	var err error
	if job.forget {
		err = b.publisher.Forget(ctx, job.roomID)
	} else {
		err = b.publisher.Publish(ctx, job.roomID, job.data)
	}
	if err != nil {
		b.logger.Warn("failed to mirror event",
			slog.String("room_id", string(job.roomID)),
			slog.String("event", string(job.event)),
			slog.Bool("forget", job.forget),
			slog.String("error", err.Error()))
	}
	return err
}
