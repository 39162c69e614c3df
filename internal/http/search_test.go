package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimale-ku/pricelens/internal/adapter"
	"github.com/jimale-ku/pricelens/internal/aggregate"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
	"github.com/jimale-ku/pricelens/internal/registry"
)

// Registered against the default Prometheus registry, so constructed once
// for the whole test binary.
var testMetrics = NewMetrics()

type stubClient struct {
	fail bool
}

func (s *stubClient) Search(context.Context, models.SearchOptions) (provider.RawResponse, error) {
	if s.fail {
		return provider.RawResponse{}, provider.NewError(provider.KindNetwork, "stub", errors.New("unreachable"))
	}
	return provider.RawResponse{Provider: "stub", Body: []byte(`{}`), StatusCode: 200}, nil
}

func (s *stubClient) Lookup(context.Context, string) (provider.RawResponse, error) {
	return s.Search(context.Background(), models.SearchOptions{})
}

func (s *stubClient) Enabled() bool { return true }
func (s *stubClient) MaxLimit() int { return 100 }

type stubNormalizer struct {
	store  string
	amount float64
}

func (s *stubNormalizer) Normalize(_ provider.RawResponse, fetchedAt time.Time) (provider.NormalizeResult, error) {
	p := decimal.NewFromFloat(s.amount)
	return provider.NormalizeResult{
		Products: []models.NormalizedProduct{{
			Name:      "Widget",
			FetchedAt: fetchedAt,
			Prices: []models.NormalizedPrice{{
				StoreID:    s.store,
				StoreName:  s.store,
				Price:      p,
				TotalPrice: p,
				Currency:   "USD",
				InStock:    true,
				FetchedAt:  fetchedAt,
			}},
		}},
	}, nil
}

func testRegistry() *registry.Registry {
	reg := registry.New(4, zerolog.Nop())
	policy := adapter.RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond}

	add := func(id string, amount float64, fail bool) {
		store := models.StoreInfo{ID: id, Name: id, Enabled: true, Integration: models.IntegrationAPIKey}
		reg.Register(adapter.New(store, &stubClient{fail: fail}, &stubNormalizer{store: id, amount: amount}, policy, zerolog.Nop()))
	}
	add("alpha", 12.50, false)
	add("beta", 9.99, false)
	add("gamma", 0, true)
	return reg
}

func newSearchHandler() *SearchHandler {
	agg := aggregate.New(nil, "en-US", zerolog.Nop())
	return NewSearchHandler(testRegistry(), agg, nil, testMetrics, 10, false, zerolog.Nop())
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	h := newSearchHandler()
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandlerReturnsPartialResults(t *testing.T) {
	h := newSearchHandler()
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=widget", nil))

	require.Equal(t, http.StatusOK, rec.Code, "store failures never fail the endpoint")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "widget", resp.Query)
	assert.Equal(t, 2, resp.StoresSucceeded)
	assert.Equal(t, 1, resp.StoresFailed)
	require.Len(t, resp.Stores, 3)
	assert.True(t, resp.Stores["alpha"].OK)
	assert.False(t, resp.Stores["gamma"].OK)
	assert.NotEmpty(t, resp.Stores["gamma"].Error)

	// Both surviving offers group under one product, cheapest first.
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0].Prices, 2)
	assert.Equal(t, "beta", resp.Results[0].Prices[0].StoreID)
	assert.True(t, resp.Results[0].Prices[0].IsBestDeal)
	assert.Equal(t, "+$2.51", resp.Results[0].Prices[1].PriceDifference)
}
