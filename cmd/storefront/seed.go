package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront-service/internal/catalog"
)

func seedCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Create the course-unit products and prices in Stripe",
		Long: `Create one product and one price per course unit in Stripe.
Units whose product already exists (matched by name) are skipped, unless the
product has no active price, in which case the price is created.
Run sync-catalog afterwards to mirror them locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if dryRun {
				for _, c := range catalog.Courses {
					for _, u := range c.Units {
						fmt.Fprintf(out, "%s  %s\n", u.ProductName(c), catalog.FormatAmount(catalog.UnitPriceAmount, catalog.UnitCurrency))
					}
				}
				return nil
			}

			sc, err := newStripeClient()
			if err != nil {
				return err
			}
			seeder, err := catalog.NewSeeder(sc)
			if err != nil {
				return err
			}

			res := seeder.Seed(cmd.Context(), catalog.Courses)
			fmt.Fprintf(out, "created %d, repaired %d, skipped %d, failed %d\n", res.Created, res.Repaired, res.Skipped, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d course units could not be seeded", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the units without calling Stripe")
	return cmd
}
