// AngelaMos | 2026
// admin.go

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/auth"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
)

const adminPasswordEnv = "SMARTPRO_ADMIN_PASSWORD"

func (c *cli) adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage the reserved administrator",
	}

	var email, password string
	provision := &cobra.Command{
		Use:   "provision",
		Short: "Create the administrator credential and account if absent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if email == "" {
				email = c.cfg.Bootstrap.AdminEmail
			}
			if password == "" {
				password = os.Getenv(adminPasswordEnv)
			}

			db, err := c.openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits right after

			accounts := account.NewRepository(docstore.NewPostgresStore(db.DB), c.logger)
			resolver := auth.NewResolver(accounts, c.cfg.Bootstrap, c.logger)
			if !resolver.IsReservedAdmin(email) {
				return fmt.Errorf("%s is not the configured bootstrap admin email", email)
			}

			provider := c.provider(db)

			h, err := provider.LookupHandle(ctx, email)
			switch {
			case errors.Is(err, core.ErrNotFound):
				if password == "" {
					return fmt.Errorf("--password or %s is required to create the credential", adminPasswordEnv)
				}
				h, err = provider.CreateCredential(ctx, email, password)
				if err != nil {
					return err
				}
				cmd.Printf("created credential %s\n", h.ID)
			case err != nil:
				return err
			default:
				cmd.Printf("credential %s already exists\n", h.ID)
			}

			a, err := resolver.ResolveOrBootstrap(ctx, h, true)
			if err != nil {
				return err
			}

			cmd.Printf("account %s role=%s status=%s\n", a.ID, a.Role, a.Status)
			return nil
		},
	}
	provision.Flags().StringVar(&email, "email", "", "administrator email (defaults to bootstrap.admin_email)")
	provision.Flags().StringVar(&password, "password", "", "administrator password (or "+adminPasswordEnv+")")

	admin.AddCommand(provision)
	return admin
}
