package main

import (
	"github.com/spf13/cobra"

	"storefront-service/internal/stores/postgres"
)

func migrateCmd() *cobra.Command {
	var down, status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply the embedded goose migrations to DATABASE_URL.

Examples:
  storefront migrate
  storefront migrate --status
  storefront migrate --down`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, _, err := openLedger(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			switch {
			case status:
				return postgres.MigrationStatus(ctx, db)
			case down:
				return postgres.Rollback(ctx, db)
			}
			return postgres.Migrate(ctx, db)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "print migration status")
	cmd.MarkFlagsMutuallyExclusive("down", "status")
	return cmd
}
