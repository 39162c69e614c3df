package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jimale-ku/pricelens/internal/aggregate"
	"github.com/jimale-ku/pricelens/internal/database"
	"github.com/jimale-ku/pricelens/internal/models"
)

func searchCmd() *cobra.Command {
	var limit int
	var category string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-time product search",
		Long:  "Searches all configured providers for a product and prints the ranked price comparison.",
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

			opts := models.SearchOptions{
				Query:    args[0],
				Limit:    limit,
				Category: category,
				Locale:   cfg.Locale,
			}

			results := reg.SearchAll(ctx, opts)
			aggregated := agg.Aggregate(results)

			printOutcomes(results)
			printResults(aggregated)

			if cfg.StoreResults && cfg.PostgresDSN != "" {
				db, err := database.New(cfg.PostgresDSN, logger)
				if err != nil {
					return fmt.Errorf("connecting to database: %w", err)
				}
				defer db.Close()

				stored, err := db.SaveResults(ctx, aggregated)
				if err != nil {
					return fmt.Errorf("storing results: %w", err)
				}
				logger.Info().Int("stored", stored).Msg("results stored")
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results per provider")
	cmd.Flags().StringVar(&category, "category", "", "Category hint for providers")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall search timeout")

	return cmd
}

func printResults(results []models.AggregatedResult) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	for _, r := range results {
		fmt.Printf("\n%s", r.ProductName)
		if r.Barcode != "" {
			fmt.Printf("  [%s]", r.Barcode)
		}
		fmt.Printf("  (%d stores, spread %s)\n", r.StoreCount, r.PriceSpread.StringFixed(2))
		if r.AllOutOfStock {
			fmt.Println("  all offers out of stock")
		}

		for _, p := range r.Prices {
			marker := " "
			if p.IsBestDeal {
				marker = "*"
			}
			stock := "in stock"
			if !p.InStock {
				stock = "out of stock"
			}
			fmt.Printf("  %s #%d %-24s %10s total  %-12s %s\n",
				marker, p.Rank, p.StoreName, p.TotalPrice.StringFixed(2), stock, p.PriceDifference)
		}
	}
}
