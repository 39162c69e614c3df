// Package adapter wraps a provider client/normalizer pair with retry,
// backoff and advisory health tracking behind a uniform search contract.
package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

// RetryPolicy controls the retry budget for retryable provider failures.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the first backoff delay; it doubles per attempt.
	InitialDelay time.Duration
}

// DefaultRetryPolicy returns the standard retry budget.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}
}

// Adapter is one store's retrying wrapper around a client/normalizer pair.
// Each adapter exclusively owns its health state; there is no cross-adapter
// shared state.
type Adapter struct {
	store  models.StoreInfo
	client provider.Client
	norm   provider.Normalizer
	policy RetryPolicy
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	health models.HealthSnapshot
}

// New creates an adapter in the unknown health state.
func New(store models.StoreInfo, client provider.Client, norm provider.Normalizer, policy RetryPolicy, logger zerolog.Logger) *Adapter {
	return &Adapter{
		store:  store,
		client: client,
		norm:   norm,
		policy: policy,
		logger: logger.With().Str("provider", store.ID).Logger(),
		now:    time.Now,
		health: models.HealthSnapshot{Status: models.HealthUnknown},
	}
}

// Store returns the adapter's store identity.
func (a *Adapter) Store() models.StoreInfo {
	return a.store
}

// IsEnabled reports whether the store is enabled and its credentials are
// configured. When false, search operations fail fast with an auth-class
// error and never touch the network.
func (a *Adapter) IsEnabled() bool {
	return a.store.Enabled && a.client.Enabled()
}

// Health returns a snapshot of the adapter's advisory health state. Health
// never blocks calls; callers may choose to skip down adapters but the
// adapter keeps accepting requests.
func (a *Adapter) Health() models.HealthSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.health
}

// SearchProducts runs a free-text search with retries and returns the
// surviving normalized products.
func (a *Adapter) SearchProducts(ctx context.Context, opts models.SearchOptions) ([]models.NormalizedProduct, error) {
	if !a.IsEnabled() {
		return nil, a.disabledError()
	}

	if opts.Limit > a.client.MaxLimit() {
		opts.Limit = a.client.MaxLimit()
	}

	raw, err := a.fetchWithRetry(ctx, func(ctx context.Context) (provider.RawResponse, error) {
		return a.client.Search(ctx, opts)
	})
	if err != nil {
		a.recordFailure(err)
		return nil, err
	}

	res, err := a.norm.Normalize(raw, a.now().UTC())
	if err != nil {
		a.recordFailure(err)
		return nil, err
	}
	a.recordSuccess()

	a.logger.Info().
		Str("query", opts.Query).
		Int("count", len(res.Products)).
		Int("dropped", res.Dropped).
		Msg("search completed")

	return res.Products, nil
}

// PricesByIdentifier fetches offers for a product identifier and returns the
// flattened price list.
func (a *Adapter) PricesByIdentifier(ctx context.Context, identifier string) ([]models.NormalizedPrice, error) {
	if !a.IsEnabled() {
		return nil, a.disabledError()
	}

	raw, err := a.fetchWithRetry(ctx, func(ctx context.Context) (provider.RawResponse, error) {
		return a.client.Lookup(ctx, identifier)
	})
	if err != nil {
		a.recordFailure(err)
		return nil, err
	}

	res, err := a.norm.Normalize(raw, a.now().UTC())
	if err != nil {
		a.recordFailure(err)
		return nil, err
	}
	a.recordSuccess()

	var prices []models.NormalizedPrice
	for _, p := range res.Products {
		prices = append(prices, p.Prices...)
	}

	a.logger.Info().
		Str("identifier", identifier).
		Int("count", len(prices)).
		Int("dropped", res.Dropped).
		Msg("lookup completed")

	return prices, nil
}

func (a *Adapter) disabledError() error {
	return provider.NewError(provider.KindAuth, a.store.ID,
		errors.New("adapter disabled: credentials missing or store disabled"))
}

// fetchWithRetry retries retryable failures with exponential backoff
// (initialDelay * 2^attempt). Non-retryable failures abort immediately
// without consuming retry budget; unknown-class failures get a single retry.
// On exhaustion the original failure is returned.
func (a *Adapter) fetchWithRetry(ctx context.Context, fn func(context.Context) (provider.RawResponse, error)) (provider.RawResponse, error) {
	for attempt := 0; ; attempt++ {
		raw, err := fn(ctx)
		if err == nil {
			return raw, nil
		}

		var perr *provider.Error
		if !errors.As(err, &perr) || !perr.Retryable() {
			return raw, err
		}

		budget := a.policy.MaxRetries
		if perr.Kind == provider.KindUnknown && budget > 1 {
			budget = 1
		}
		if attempt >= budget {
			return raw, err
		}

		delay := a.policy.InitialDelay << attempt
		a.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying after failure")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return raw, provider.Classify(a.store.ID, 0, ctx.Err())
		case <-timer.C:
		}
	}
}

func (a *Adapter) recordSuccess() {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.health.Status = models.HealthHealthy
	a.health.ConsecutiveFailures = 0
	a.health.LastSuccessAt = &now
	a.health.LastError = ""
}

func (a *Adapter) recordFailure(err error) {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.health.ConsecutiveFailures++
	a.health.LastFailureAt = &now
	a.health.LastError = err.Error()
	if a.health.ConsecutiveFailures >= 5 {
		a.health.Status = models.HealthDown
	} else {
		a.health.Status = models.HealthDegraded
	}
}
