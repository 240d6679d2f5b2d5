package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := s.client.Get("/health", &result); err != nil {
				return err
			}

			s.output(cmd).Print(result)
			return nil
		},
	}
}
