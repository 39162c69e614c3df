// Package main provides the entry point for the PriceLens CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jimale-ku/pricelens/internal/adapter"
	"github.com/jimale-ku/pricelens/internal/config"
	"github.com/jimale-ku/pricelens/internal/provider/amazon"
	"github.com/jimale-ku/pricelens/internal/provider/bestbuy"
	"github.com/jimale-ku/pricelens/internal/provider/scrapingbee"
	"github.com/jimale-ku/pricelens/internal/provider/serpapi"
	"github.com/jimale-ku/pricelens/internal/registry"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
	// BuildDate is set at build time.
	BuildDate = "unknown"
)

var cfg *config.Config

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "pricelens",
		Short: "PriceLens - compare product prices across stores",
		Long: `PriceLens is a service that searches multiple store providers for product
prices, normalizes the results into a single canonical shape and ranks them
by total price.

Features:
  - Multiple store providers (SerpAPI, Amazon, ScrapingBee, Best Buy)
  - Concurrent fan-out with per-store retry and health tracking
  - Ranked best-deal aggregation with price spreads
  - Daily refresh of tracked product identifiers
  - Prometheus metrics and status endpoints`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string (empty disables persistence)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")
	rootCmd.PersistentFlags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address for /search, /status, /metrics")
	rootCmd.PersistentFlags().BoolVar(&cfg.StoreResults, "store-results", cfg.StoreResults, "Persist normalized prices to the database")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.Providers, "providers", cfg.Providers, "Comma-separated list of providers")

	// Add subcommands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() zerolog.Logger {
	var logger zerolog.Logger

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	return logger
}

// buildRegistry registers one adapter per configured provider.
func buildRegistry(logger zerolog.Logger) *registry.Registry {
	reg := registry.New(cfg.Concurrency, logger)
	policy := adapter.RetryPolicy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
	}

	for _, p := range cfg.Providers {
		switch p {
		case serpapi.ProviderName:
			client, norm := serpapi.New(cfg.SerpAPI, logger)
			reg.Register(adapter.New(serpapi.Store(), client, norm, policy, logger))
		case amazon.ProviderName:
			client, norm := amazon.New(cfg.Amazon, logger)
			reg.Register(adapter.New(amazon.Store(), client, norm, policy, logger))
		case scrapingbee.ProviderName:
			client, norm := scrapingbee.New(cfg.ScrapingBee, logger)
			reg.Register(adapter.New(scrapingbee.Store(cfg.ScrapingBee), client, norm, policy, logger))
		case bestbuy.ProviderName:
			client, norm := bestbuy.New(logger)
			reg.Register(adapter.New(bestbuy.Store(), client, norm, policy, logger))
		default:
			logger.Warn().Str("provider", p).Msg("unknown provider, skipping")
		}
	}

	return reg
}
