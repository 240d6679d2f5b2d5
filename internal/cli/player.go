package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newPlayerCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player identity commands",
	}

	cmd.AddCommand(newPlayerShowCmd(s))
	cmd.AddCommand(newPlayerNewCmd(s))
	cmd.AddCommand(newPlayerSetCmd(s))

	return cmd
}

func newPlayerShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the player id used for seats",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.output(cmd).Print(PlayerResult{PlayerID: s.cfg.PlayerID, File: s.cfg.PlayerFile})
			return nil
		},
	}
}

func newPlayerNewCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Generate and save a fresh player id",
		Long: `Generate a fresh player id and save it to the player file.

Seats held under the previous id are not released; leave them first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.cfg.SavePlayerID(uuid.NewString()); err != nil {
				return fmt.Errorf("failed to save player id: %w", err)
			}

			s.output(cmd).Print(PlayerResult{PlayerID: s.cfg.PlayerID, File: s.cfg.PlayerFile})
			return nil
		},
	}
}

func newPlayerSetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id>",
		Short: "Save an existing player id, e.g. one copied from a browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.cfg.SavePlayerID(args[0]); err != nil {
				return fmt.Errorf("failed to save player id: %w", err)
			}

			s.output(cmd).Print(PlayerResult{PlayerID: s.cfg.PlayerID, File: s.cfg.PlayerFile})
			return nil
		},
	}
}
