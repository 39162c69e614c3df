// Package registry holds one adapter per store and fans queries out across
// all of them concurrently, collecting per-store results independently.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jimale-ku/pricelens/internal/adapter"
	"github.com/jimale-ku/pricelens/internal/models"
)

// StoreResult is one adapter's outcome for a fan-out query. Partial results
// are the normal, expected case: a failed store carries Err while its
// siblings carry data.
type StoreResult struct {
	StoreID  string
	Products []models.NormalizedProduct
	Prices   []models.NormalizedPrice
	Err      error
	Duration time.Duration
}

// Recorder receives per-call observations for metrics export.
type Recorder interface {
	RecordProviderRequest(provider, status string, seconds float64)
	RecordAdapterHealth(provider string, status models.HealthStatus)
}

// Registry is the adapter registry.
type Registry struct {
	mu          sync.RWMutex
	adapters    map[string]*adapter.Adapter
	order       []string
	concurrency int
	recorder    Recorder
	logger      zerolog.Logger
}

// New creates a registry with the given fan-out concurrency bound.
func New(concurrency int, logger zerolog.Logger) *Registry {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Registry{
		adapters:    make(map[string]*adapter.Adapter),
		concurrency: concurrency,
		logger:      logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a *adapter.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := a.Store().ID
	if _, exists := r.adapters[id]; !exists {
		r.order = append(r.order, id)
	}
	r.adapters[id] = a
}

// Get returns the adapter for a store ID.
func (r *Registry) Get(id string) (*adapter.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// Adapters returns all registered adapters in registration order.
func (r *Registry) Adapters() []*adapter.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*adapter.Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// SetRecorder wires a metrics recorder. Safe to leave unset.
func (r *Registry) SetRecorder(rec Recorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// SearchAll fans a search out to every adapter concurrently and waits for
// all to settle. One adapter's failure never discards another's result; the
// returned map always has one entry per adapter and SearchAll itself never
// fails.
func (r *Registry) SearchAll(ctx context.Context, opts models.SearchOptions) map[string]StoreResult {
	return r.fanOut(ctx, func(ctx context.Context, a *adapter.Adapter) StoreResult {
		start := time.Now()
		products, err := a.SearchProducts(ctx, opts)
		return StoreResult{
			StoreID:  a.Store().ID,
			Products: products,
			Err:      err,
			Duration: time.Since(start),
		}
	})
}

// LookupAll fans an identifier lookup out to every adapter concurrently.
func (r *Registry) LookupAll(ctx context.Context, identifier string) map[string]StoreResult {
	return r.fanOut(ctx, func(ctx context.Context, a *adapter.Adapter) StoreResult {
		start := time.Now()
		prices, err := a.PricesByIdentifier(ctx, identifier)
		return StoreResult{
			StoreID:  a.Store().ID,
			Prices:   prices,
			Err:      err,
			Duration: time.Since(start),
		}
	})
}

func (r *Registry) fanOut(ctx context.Context, call func(context.Context, *adapter.Adapter) StoreResult) map[string]StoreResult {
	adapters := r.Adapters()
	r.mu.RLock()
	recorder := r.recorder
	r.mu.RUnlock()

	results := make(map[string]StoreResult, len(adapters))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for _, a := range adapters {
		g.Go(func() error {
			res := call(ctx, a)

			if res.Err != nil {
				r.logger.Warn().
					Err(res.Err).
					Str("provider", res.StoreID).
					Dur("duration", res.Duration).
					Msg("store query failed")
			}
			if recorder != nil {
				status := "success"
				if res.Err != nil {
					status = "error"
				}
				recorder.RecordProviderRequest(res.StoreID, status, res.Duration.Seconds())
				recorder.RecordAdapterHealth(res.StoreID, a.Health().Status)
			}

			mu.Lock()
			results[res.StoreID] = res
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; Wait is only a barrier.
	_ = g.Wait()

	return results
}
