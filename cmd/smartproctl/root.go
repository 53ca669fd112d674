// AngelaMos | 2026
// root.go

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartpro-edu/smartpro/internal/config"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/identity"
)

// cli carries what every subcommand needs once the root has loaded config.
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "smartproctl",
		Short:         "Operator tooling for the SmartPro API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			c.cfg = cfg
			c.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
			return nil
		},
	}

	root.PersistentFlags().StringVar(
		&c.configPath,
		"config",
		"config.yaml",
		"path to config file",
	)

	root.AddCommand(
		c.migrateCmd(),
		c.keysCmd(),
		c.adminCmd(),
		c.sessionsCmd(),
	)

	return root
}

func (c *cli) openDatabase(cmd *cobra.Command) (*core.Database, error) {
	db, err := core.NewDatabase(cmd.Context(), c.cfg.Database)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// provider builds an identity provider limited to the operations that need
// only Postgres: credential management and session pruning.
func (c *cli) provider(db *core.Database) *identity.Provider {
	return identity.NewProvider(identity.ProviderConfig{
		Credentials: identity.NewCredentialRepository(db.DB),
		Sessions:    identity.NewSessionRepository(db.DB),
		Notifier:    identity.NewLocalNotifier(),
		Hasher:      identity.NewHasher(identity.DefaultHashParams),
		Policy: identity.Policy{
			MinLength: c.cfg.Identity.MinPasswordLength,
			MaxLength: c.cfg.Identity.MaxPasswordLength,
		},
		RefreshTokenTTL: c.cfg.JWT.RefreshTokenExpire,
		Logger:          c.logger,
	})
}
