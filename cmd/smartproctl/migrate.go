// AngelaMos | 2026
// migrate.go

package main

import (
	"github.com/spf13/cobra"

	"github.com/smartpro-edu/smartpro/internal/core"
)

func (c *cli) migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			if !statusOnly {
				if err := core.Migrate(cmd.Context(), db.DB.DB); err != nil {
					return err
				}
			}

			version, err := core.MigrationStatus(cmd.Context(), db.DB.DB)
			if err != nil {
				return err
			}

			cmd.Printf("schema version %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "print the current version without migrating")
	return cmd
}
