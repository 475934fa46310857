package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/lexis-core/internal/core/domain"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token signed with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := domain.Role(tokenRole)
		if !role.IsValid() {
			return fmt.Errorf("unknown role %q (want %s or %s)", tokenRole, domain.RoleAdmin, domain.RoleReader)
		}
		if tokenTTL <= 0 {
			return fmt.Errorf("ttl must be positive")
		}

		adapter, err := auth.NewAdapter(cfg.Server.AdminTokenSecret)
		if err != nil {
			return err
		}
		token, err := adapter.GenerateToken(domain.NewTokenClaims(tokenSubject, role, tokenTTL))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleAdmin), "token role (admin or reader)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
