package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// session carries the resolved configuration to every subcommand
type session struct {
	cfg    *Config
	client *Client
}

func (s *session) output(cmd *cobra.Command) *Output {
	return NewOutput(s.cfg.Output, cmd.OutOrStdout())
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	s := &session{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "tttctl",
		Short: "CLI tool for the tic-tac-toe rooms API",
		Long: `tttctl is a CLI tool for interacting with the tic-tac-toe rooms JSON API.

It supports creating and searching rooms, taking seats, making moves,
and streaming a room's real-time events over a websocket.

Your player id is generated on first use and kept in the player file,
so later commands reclaim the same seat.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := s.cfg.LoadPlayerID(); err != nil {
				return err
			}

			// Create HTTP client
			s.client = NewClient(s.cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&s.cfg.ServerURL, "server", s.cfg.ServerURL, "Server URL (env: TTT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.PlayerID, "player", s.cfg.PlayerID, "Player id (env: TTT_PLAYER)")
	rootCmd.PersistentFlags().StringVar(&s.cfg.PlayerFile, "player-file", s.cfg.PlayerFile, "Player id file path (env: TTT_PLAYER_FILE)")
	rootCmd.PersistentFlags().StringVarP(&s.cfg.Output, "output", "o", s.cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&s.cfg.Verbose, "verbose", "v", s.cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newPlayerCmd(s))
	rootCmd.AddCommand(newRoomCmd(s))
	rootCmd.AddCommand(newEventsCmd(s))
	rootCmd.AddCommand(newHealthCmd(s))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
