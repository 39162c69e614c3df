package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimale-ku/pricelens/internal/adapter"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

type stubClient struct {
	fail     bool
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (s *stubClient) Search(context.Context, models.SearchOptions) (provider.RawResponse, error) {
	return s.respond()
}

func (s *stubClient) Lookup(context.Context, string) (provider.RawResponse, error) {
	return s.respond()
}

func (s *stubClient) respond() (provider.RawResponse, error) {
	if s.inFlight != nil {
		n := s.inFlight.Add(1)
		for {
			cur := s.peak.Load()
			if n <= cur || s.peak.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		s.inFlight.Add(-1)
	}
	if s.fail {
		return provider.RawResponse{}, provider.NewError(provider.KindNetwork, "stub", errors.New("unreachable"))
	}
	return provider.RawResponse{Provider: "stub", Body: []byte(`{}`), StatusCode: 200}, nil
}

func (s *stubClient) Enabled() bool { return true }
func (s *stubClient) MaxLimit() int { return 100 }

type stubNormalizer struct {
	store string
}

func (s *stubNormalizer) Normalize(_ provider.RawResponse, fetchedAt time.Time) (provider.NormalizeResult, error) {
	price := decimal.NewFromInt(10)
	return provider.NormalizeResult{
		Products: []models.NormalizedProduct{{
			Name:      "Widget",
			FetchedAt: fetchedAt,
			Prices: []models.NormalizedPrice{{
				StoreID:    s.store,
				StoreName:  s.store,
				Price:      price,
				TotalPrice: price,
				Currency:   "USD",
				InStock:    true,
				FetchedAt:  fetchedAt,
			}},
		}},
	}, nil
}

func registerStub(t *testing.T, reg *Registry, id string, client provider.Client) {
	t.Helper()
	store := models.StoreInfo{ID: id, Name: id, Enabled: true, Integration: models.IntegrationAPIKey}
	policy := adapter.RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond}
	reg.Register(adapter.New(store, client, &stubNormalizer{store: id}, policy, zerolog.Nop()))
}

func TestSearchAllReturnsPartialResults(t *testing.T) {
	reg := New(4, zerolog.Nop())
	registerStub(t, reg, "alpha", &stubClient{})
	registerStub(t, reg, "beta", &stubClient{fail: true})
	registerStub(t, reg, "gamma", &stubClient{})
	registerStub(t, reg, "delta", &stubClient{fail: true})
	registerStub(t, reg, "epsilon", &stubClient{})

	results := reg.SearchAll(context.Background(), models.SearchOptions{Query: "widget", Limit: 10})

	require.Len(t, results, 5, "one entry per adapter, failures included")

	var succeeded, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			assert.Empty(t, res.Products)
		} else {
			succeeded++
			assert.NotEmpty(t, res.Products)
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, failed)
}

func TestSearchAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	reg := New(2, zerolog.Nop())
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		registerStub(t, reg, id, &stubClient{inFlight: &inFlight, peak: &peak})
	}

	results := reg.SearchAll(context.Background(), models.SearchOptions{Query: "widget", Limit: 10})

	require.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLookupAllCollectsPrices(t *testing.T) {
	reg := New(4, zerolog.Nop())
	registerStub(t, reg, "alpha", &stubClient{})
	registerStub(t, reg, "beta", &stubClient{})

	results := reg.LookupAll(context.Background(), "0123456789012")

	require.Len(t, results, 2)
	for id, res := range results {
		require.NoError(t, res.Err)
		require.Len(t, res.Prices, 1)
		assert.Equal(t, id, res.Prices[0].StoreID)
	}
}

func TestRegisterKeepsOrderAndReplaces(t *testing.T) {
	reg := New(1, zerolog.Nop())
	registerStub(t, reg, "alpha", &stubClient{})
	registerStub(t, reg, "beta", &stubClient{})
	registerStub(t, reg, "alpha", &stubClient{fail: true})

	adapters := reg.Adapters()
	require.Len(t, adapters, 2)
	assert.Equal(t, "alpha", adapters[0].Store().ID)
	assert.Equal(t, "beta", adapters[1].Store().ID)

	a, ok := reg.Get("alpha")
	require.True(t, ok)
	_, err := a.SearchProducts(context.Background(), models.SearchOptions{Query: "x", Limit: 1})
	assert.Error(t, err, "replacement adapter is the one served")
}

type countingRecorder struct {
	mu       sync.Mutex
	requests map[string]string
	health   map[string]models.HealthStatus
}

func (c *countingRecorder) RecordProviderRequest(provider, status string, _ float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[provider] = status
}

func (c *countingRecorder) RecordAdapterHealth(provider string, status models.HealthStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health[provider] = status
}

func TestSearchAllFeedsRecorder(t *testing.T) {
	rec := &countingRecorder{
		requests: make(map[string]string),
		health:   make(map[string]models.HealthStatus),
	}
	reg := New(4, zerolog.Nop())
	reg.SetRecorder(rec)
	registerStub(t, reg, "alpha", &stubClient{})
	registerStub(t, reg, "beta", &stubClient{fail: true})

	reg.SearchAll(context.Background(), models.SearchOptions{Query: "widget", Limit: 10})

	assert.Equal(t, "success", rec.requests["alpha"])
	assert.Equal(t, "error", rec.requests["beta"])
	assert.Equal(t, models.HealthHealthy, rec.health["alpha"])
	assert.Equal(t, models.HealthDegraded, rec.health["beta"])
}
