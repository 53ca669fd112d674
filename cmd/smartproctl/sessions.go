// AngelaMos | 2026
// sessions.go

package main

import (
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) sessionsCmd() *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain refresh token sessions",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete refresh tokens that expired before now minus --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			n, err := c.provider(db).PruneSessions(cmd.Context(), olderThan)
			if err != nil {
				return err
			}

			cmd.Printf("deleted %d expired sessions\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 0, "keep sessions that expired within this window")

	sessions.AddCommand(prune)
	return sessions
}
