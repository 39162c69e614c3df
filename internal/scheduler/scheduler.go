// Package scheduler provides the daily refresh of tracked product
// identifiers.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/database"
	"github.com/jimale-ku/pricelens/internal/registry"
)

// Scheduler refreshes price observations for tracked identifiers once a day.
type Scheduler struct {
	registry    *registry.Registry
	db          *database.DB
	identifiers []string
	refreshHour int
	logger      zerolog.Logger

	mu        sync.RWMutex
	nextRunAt time.Time
	lastRunAt *time.Time
	running   bool
}

// New creates a new Scheduler.
func New(reg *registry.Registry, db *database.DB, identifiers []string, refreshHour int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		registry:    reg,
		db:          db,
		identifiers: identifiers,
		refreshHour: refreshHour,
		logger:      logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler and blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info().
		Int("refreshHour", s.refreshHour).
		Int("identifiers", len(s.identifiers)).
		Msg("starting scheduler")

	// Initial refresh so a fresh process has today's observations.
	s.runRefresh(ctx)

	nextRun := s.calculateNextRunTime()
	s.mu.Lock()
	s.nextRunAt = nextRun
	s.mu.Unlock()

	s.logger.Info().
		Time("nextRun", nextRun).
		Dur("duration", time.Until(nextRun)).
		Msg("next refresh scheduled")

	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-timer.C:
			s.runRefresh(ctx)

			nextRun = s.calculateNextRunTime()
			s.mu.Lock()
			s.nextRunAt = nextRun
			s.mu.Unlock()

			s.logger.Info().
				Time("nextRun", nextRun).
				Msg("next refresh scheduled")

			timer.Reset(time.Until(nextRun))
		}
	}
}

// calculateNextRunTime returns the next occurrence of the refresh hour.
func (s *Scheduler) calculateNextRunTime() time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.refreshHour, 0, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// runRefresh looks every tracked identifier up across all stores and
// persists the observed prices.
func (s *Scheduler) runRefresh(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	stored := 0
	for _, id := range s.identifiers {
		results := s.registry.LookupAll(ctx, id)

		for storeID, res := range results {
			if res.Err != nil {
				s.logger.Warn().
					Err(res.Err).
					Str("provider", storeID).
					Str("identifier", id).
					Msg("refresh lookup failed")
				continue
			}
			if s.db == nil {
				continue
			}
			for _, p := range res.Prices {
				if err := s.db.UpsertPrice(ctx, id, "", p); err != nil {
					s.logger.Error().
						Err(err).
						Str("provider", storeID).
						Str("identifier", id).
						Msg("failed to store refreshed price")
					continue
				}
				stored++
			}
		}
	}

	s.logger.Info().
		Int("identifiers", len(s.identifiers)).
		Int("stored", stored).
		Msg("refresh completed")
}

// NextRunAt returns the time of the next scheduled refresh.
func (s *Scheduler) NextRunAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRunAt
}

// LastRunAt returns the time of the last refresh.
func (s *Scheduler) LastRunAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
