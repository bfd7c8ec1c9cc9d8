package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"storefront-service/internal/auth"
	"storefront-service/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Require(config.KeyJWTSecret); err != nil {
				return err
			}
			k, err := auth.NewKeys(cfg.JWTSecret)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.AdminTokenTTL
			}
			tok, err := k.GenerateToken(subject, auth.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "subject claim of the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ADMIN_TOKEN_TTL)")
	return cmd
}
