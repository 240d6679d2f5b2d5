package room

import (
	"context"
	"log/slog"

	"github.com/mcoot/tictactoe-rooms/internal/model"
)

// Sweep evicts every room idle for longer than the inactivity timeout and
// returns how many were removed. Idleness alone decides: a room whose
// players stopped acting is evicted with its seats still taken.
// Storage failures are logged, never returned.
func (s *Store) Sweep(ctx context.Context) int {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		s.logger.Error("sweep failed to list rooms", slog.String("error", err.Error()))
		return 0
	}

	now := s.clock.Now()
	var evicted []model.RoomID
	for _, room := range rooms {
		room.Mu.Lock()
		if !room.Deleted && now.Sub(room.LastActivity) > s.cfg.InactivityTimeout {
			s.deleteLocked(ctx, room)
			evicted = append(evicted, room.ID)
		}
		room.Mu.Unlock()
	}

	for _, id := range evicted {
		s.logger.Info("room evicted for inactivity", slog.String("room_id", string(id)))
		s.runHooks(id)
	}
	return len(evicted)
}

// Start runs Sweep every SweepInterval until Stop is called or ctx ends.
// Calling Start on a running store does nothing.
func (s *Store) Start(ctx context.Context) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if s.stop != nil || s.cfg.SweepInterval <= 0 {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	ticker := s.clock.NewTicker(s.cfg.SweepInterval)
	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				s.Sweep(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}(s.stop, s.done)

	s.logger.Info("room sweeper started",
		slog.Duration("interval", s.cfg.SweepInterval),
		slog.Duration("timeout", s.cfg.InactivityTimeout),
	)
}

// Stop halts the background sweep and waits for it to exit
func (s *Store) Stop() {
	s.sweepMu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.sweepMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
