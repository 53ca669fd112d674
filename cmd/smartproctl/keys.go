// AngelaMos | 2026
// keys.go

package main

import (
	"github.com/spf13/cobra"

	"github.com/smartpro-edu/smartpro/internal/identity"
)

func (c *cli) keysCmd() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage the access token signing keys",
	}

	var force bool
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a new ES256 key pair to the configured paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := identity.GenerateKeyPair(
				c.cfg.JWT.PrivateKeyPath,
				c.cfg.JWT.PublicKeyPath,
				force,
			)
			if err != nil {
				return err
			}

			cmd.Printf("wrote %s and %s\n", c.cfg.JWT.PrivateKeyPath, c.cfg.JWT.PublicKeyPath)
			return nil
		},
	}
	generate.Flags().BoolVar(&force, "force", false, "overwrite existing key files")

	keys.AddCommand(generate)
	return keys
}
