package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/realtime"
)

func newEventsCmd(s *session) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <id>",
		Short: "Stream real-time events from a room",
		Long: `Open a websocket, join the room's channel and print events as they arrive.

Events include:
  - user-joined: Another connection joined the room
  - user-left: A connection left or dropped
  - player-info: A seated player changed their name
  - move-made: A move was played
  - game-restarted: The board was cleared

The connection id is printed on connect; pass it to "room join --connection"
to tie your seat to this stream so the seat is released when it closes.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, s.cfg.ServerURL, args[0], cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// StreamEvent is one printed event
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// websocketURL maps the server URL onto its websocket endpoint
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path += "/api/ws"
	return u.String(), nil
}

func streamEvents(ctx context.Context, serverURL, roomID string, w io.Writer, jsonOutput bool) error {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on cancellation
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	join, err := realtime.Encode(model.EventJoinRoom, roomID)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to room %s\n", roomID)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			// Cancellation and a clean close are expected
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					_, _ = fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		env, err := realtime.Decode(message)
		if err != nil {
			continue
		}
		printEvent(w, env, jsonOutput)

		if env.Event == model.EventError {
			var payload realtime.ErrorPayload
			if json.Unmarshal(env.Data, &payload) == nil && payload.Code == model.ErrRoomNotFound.Code {
				return errors.New(payload.Message)
			}
		}
	}
}

func printEvent(w io.Writer, env realtime.Envelope, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := StreamEvent{
			Time:  now,
			Event: string(env.Event),
			Data:  env.Data,
		}
		jsonData, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(env.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, env.Event, displayData)
}
