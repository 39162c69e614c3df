package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jimale-ku/pricelens/internal/aggregate"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/registry"
)

func lookupCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Look up prices by barcode",
		Long:  "Fetches offers for a product identifier (barcode/GTIN/ASIN) from all configured providers and prints the ranked comparison.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return err
			}

			reg := buildRegistry(logger)
			agg := aggregate.New(nil, cfg.Locale, logger)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			results := reg.LookupAll(ctx, args[0])

			var prices []models.NormalizedPrice
			for _, res := range results {
				prices = append(prices, res.Prices...)
			}

			printOutcomes(results)
			printResults([]models.AggregatedResult{agg.Rank(args[0], args[0], prices)})

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall lookup timeout")

	return cmd
}

func printOutcomes(results map[string]registry.StoreResult) {
	for id, res := range results {
		if res.Err != nil {
			fmt.Printf("%s: FAILED (%v)\n", id, res.Err)
		}
	}
}
