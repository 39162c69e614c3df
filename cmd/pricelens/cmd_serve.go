package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jimale-ku/pricelens/internal/aggregate"
	"github.com/jimale-ku/pricelens/internal/database"
	"github.com/jimale-ku/pricelens/internal/http"
	"github.com/jimale-ku/pricelens/internal/scheduler"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the price comparison service",
		Long:  "Starts the HTTP search API with the daily refresh scheduler for tracked identifiers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Strs("providers", cfg.Providers).
				Int("trackedIdentifiers", len(cfg.TrackedIdentifiers)).
				Msg("starting pricelens")

			// Connect to database when persistence is configured
			var db *database.DB
			if cfg.PostgresDSN != "" {
				var err error
				db, err = database.New(cfg.PostgresDSN, logger)
				if err != nil {
					return fmt.Errorf("connecting to database: %w", err)
				}
				defer db.Close()
			} else {
				logger.Warn().Msg("no database configured, prices will not be persisted")
			}

			reg := buildRegistry(logger)
			agg := aggregate.New(nil, cfg.Locale, logger)

			// Create scheduler
			sched := scheduler.New(reg, db, cfg.TrackedIdentifiers, cfg.RefreshHour, logger)

			// Create HTTP server
			httpServer := http.NewServer(cfg.HTTPAddr, reg, sched, agg, db, cfg.DefaultLimit, cfg.StoreResults, logger)

			// Wire Prometheus metrics to the registry fan-out
			reg.SetRecorder(httpServer.Metrics())

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start scheduler in goroutine when something is tracked
			if len(cfg.TrackedIdentifiers) > 0 {
				go func() {
					if err := sched.Start(ctx); err != nil && err != context.Canceled {
						logger.Error().Err(err).Msg("scheduler error")
						cancel()
					}
				}()
			}

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	return cmd
}
