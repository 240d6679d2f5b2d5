package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomCmd(s *session) *cobra.Command {
	var passcode string

	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.PersistentFlags().StringVarP(&passcode, "passcode", "p", getEnvOrDefault("TTT_PASSCODE", ""), "Four digit room passcode (env: TTT_PASSCODE)")

	cmd.AddCommand(newRoomCreateCmd(s, &passcode))
	cmd.AddCommand(newRoomListCmd(s))
	cmd.AddCommand(newRoomGetCmd(s, &passcode))
	cmd.AddCommand(newRoomJoinCmd(s, &passcode))
	cmd.AddCommand(newRoomMoveCmd(s, &passcode))
	cmd.AddCommand(newRoomRestartCmd(s, &passcode))
	cmd.AddCommand(newRoomLeaveCmd(s, &passcode))
	cmd.AddCommand(newRoomRenameCmd(s))

	return cmd
}

func roomPath(id string) string {
	return "/rooms/" + url.PathEscape(id)
}

func newRoomCreateCmd(s *session, passcode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": args[0], "passcode": *passcode}
			var result RoomRef

			if err := s.client.Post("/rooms", req, &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list [search]",
		Short: "List rooms, optionally filtered by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/rooms"
			if len(args) == 1 {
				path += "?search=" + url.QueryEscape(args[0])
			}

			var result RoomList
			if err := s.client.Get(path, &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomGetCmd(s *session, passcode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show the room's board and seats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			path := roomPath(args[0]) + "?passcode=" + url.QueryEscape(*passcode)
			if err := s.client.Get(path, &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd(s *session, passcode *string) *cobra.Command {
	var username, connectionID string

	cmd := &cobra.Command{
		Use:   "join <id>",
		Short: "Take a seat in the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"passcode":     *passcode,
				"playerId":     s.cfg.PlayerID,
				"username":     username,
				"connectionId": connectionID,
			}
			var result JoinResult

			if err := s.client.Post(roomPath(args[0]), req, &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Name shown for your seat")
	cmd.Flags().StringVar(&connectionID, "connection", "", "Websocket connection id to tie the seat to")

	return cmd
}

func newRoomMoveCmd(s *session, passcode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <cell>",
		Short: "Place your symbol on a cell (0-8, row by row)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cell, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("cell must be a number from 0 to 8: %w", err)
			}

			req := map[string]any{
				"passcode": *passcode,
				"playerId": s.cfg.PlayerID,
				"move":     cell,
			}
			var result GameState

			if err := s.client.Put(roomPath(args[0]), req, &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomRestartCmd(s *session, passcode *string) *cobra.Command {
	var swap bool

	cmd := &cobra.Command{
		Use:   "restart <id>",
		Short: "Clear the board and start a new game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"passcode": *passcode, "swapSeats": swap}
			var result GameState

			if err := s.client.Post(roomPath(args[0])+"/restart", req, &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&swap, "swap", false, "Swap the players between X and O")

	return cmd
}

func newRoomLeaveCmd(s *session, passcode *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Give up your seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"passcode": *passcode, "playerId": s.cfg.PlayerID}

			if err := s.client.Delete(roomPath(args[0]), req, nil); err != nil {
				return err
			}

			s.output(cmd).PrintMessage("Left room " + args[0])
			return nil
		},
	}
}

func newRoomRenameCmd(s *session) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "rename <id> <username>",
		Short: "Change the name shown for your seat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"playerId": s.cfg.PlayerID,
				"username": args[1],
				"symbol":   strings.ToUpper(symbol),
			}

			if err := s.client.Patch(roomPath(args[0])+"/players", req, nil); err != nil {
				return err
			}

			s.output(cmd).PrintMessage(fmt.Sprintf("Renamed seat %s to %s", strings.ToUpper(symbol), args[1]))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Seat you hold: X or O (required)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}
