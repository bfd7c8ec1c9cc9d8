package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront-service/internal/catalog"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-catalog",
		Short: "Mirror Stripe products and prices into the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := openLedger(ctx, true)
			if err != nil {
				return err
			}
			defer db.Close()

			sc, err := newStripeClient()
			if err != nil {
				return err
			}
			svc, err := catalog.NewService(store, sc)
			if err != nil {
				return err
			}

			res, err := svc.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d products and %d prices (%d prices skipped) at %s\n",
				res.Products, res.Prices, res.SkippedPrices, res.SyncedAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
