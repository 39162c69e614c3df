package aggregate

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/registry"
)

var fetchedAt = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func price(store string, amount, shipping float64, inStock bool) models.NormalizedPrice {
	p := decimal.NewFromFloat(amount)
	s := decimal.NewFromFloat(shipping)
	return models.NormalizedPrice{
		StoreID:      store,
		StoreName:    store,
		Price:        p,
		Currency:     "USD",
		InStock:      inStock,
		ShippingCost: s,
		TotalPrice:   p.Add(s),
		FetchedAt:    fetchedAt,
	}
}

func product(name, barcode string, prices ...models.NormalizedPrice) models.NormalizedProduct {
	return models.NormalizedProduct{
		Name:      name,
		Barcode:   barcode,
		Prices:    prices,
		FetchedAt: fetchedAt,
	}
}

func newService() *Service {
	return New(nil, "en-US", zerolog.Nop())
}

func TestRankOrdersByTotalPrice(t *testing.T) {
	// Store A lists $9.99 + $2.00 shipping, store B $8.00 + $5.00. A wins on
	// total despite the higher sticker price.
	got := newService().Rank("Widget", "", []models.NormalizedPrice{
		price("A", 9.99, 2.00, true),
		price("B", 8.00, 5.00, true),
	})

	require.Len(t, got.Prices, 2)

	assert.Equal(t, "A", got.Prices[0].StoreID)
	assert.Equal(t, 1, got.Prices[0].Rank)
	assert.True(t, got.Prices[0].IsBestDeal)
	assert.Empty(t, got.Prices[0].PriceDifference)
	assert.Equal(t, "11.99", got.Prices[0].TotalPrice.String())

	assert.Equal(t, "B", got.Prices[1].StoreID)
	assert.Equal(t, 2, got.Prices[1].Rank)
	assert.False(t, got.Prices[1].IsBestDeal)
	assert.Equal(t, "+$1.01", got.Prices[1].PriceDifference)

	assert.Equal(t, 2, got.StoreCount)
	assert.False(t, got.AllOutOfStock)
	assert.Equal(t, "1.01", got.PriceSpread.String())
}

func TestRankTiesBreakByStoreName(t *testing.T) {
	got := newService().Rank("Widget", "", []models.NormalizedPrice{
		price("zeta", 10, 0, true),
		price("alpha", 10, 0, true),
		price("mid", 10, 0, true),
	})

	require.Len(t, got.Prices, 3)
	assert.Equal(t, "alpha", got.Prices[0].StoreID)
	assert.Equal(t, "mid", got.Prices[1].StoreID)
	assert.Equal(t, "zeta", got.Prices[2].StoreID)
	assert.True(t, got.Prices[0].IsBestDeal)
}

func TestRankOutOfStockNeverBestDeal(t *testing.T) {
	got := newService().Rank("Widget", "", []models.NormalizedPrice{
		price("cheap-but-gone", 5, 0, false),
		price("in-stock", 8, 0, true),
	})

	require.Len(t, got.Prices, 2)

	// The out-of-stock entry keeps its rank but the flag and the delta
	// baseline go to the cheapest purchasable offer.
	assert.Equal(t, "cheap-but-gone", got.Prices[0].StoreID)
	assert.False(t, got.Prices[0].IsBestDeal)
	assert.Equal(t, "-$3.00", got.Prices[0].PriceDifference)

	assert.Equal(t, "in-stock", got.Prices[1].StoreID)
	assert.True(t, got.Prices[1].IsBestDeal)
	assert.Empty(t, got.Prices[1].PriceDifference)
	assert.False(t, got.AllOutOfStock)
}

func TestRankAllOutOfStock(t *testing.T) {
	got := newService().Rank("Widget", "", []models.NormalizedPrice{
		price("A", 10, 0, false),
		price("B", 12, 0, false),
	})

	assert.True(t, got.AllOutOfStock)
	for _, p := range got.Prices {
		assert.False(t, p.IsBestDeal)
	}
	// Deltas fall back to the cheapest entry as baseline.
	assert.Empty(t, got.Prices[0].PriceDifference)
	assert.Equal(t, "+$2.00", got.Prices[1].PriceDifference)
}

func TestRankEmptyInput(t *testing.T) {
	got := newService().Rank("Widget", "", nil)

	assert.Empty(t, got.Prices)
	assert.Zero(t, got.StoreCount)
	assert.False(t, got.AllOutOfStock, "no prices is not an out-of-stock signal")
	assert.True(t, got.PriceSpread.IsZero())
}

func TestRankIsIdempotent(t *testing.T) {
	svc := newService()
	input := []models.NormalizedPrice{
		price("B", 8.00, 5.00, true),
		price("A", 9.99, 2.00, true),
		price("C", 15.00, 0, false),
	}

	first := svc.Rank("Widget", "", input)
	second := svc.Rank("Widget", "", input)

	assert.Equal(t, first, second)
	// Input order is immaterial.
	reversed := []models.NormalizedPrice{input[2], input[1], input[0]}
	assert.Equal(t, first, svc.Rank("Widget", "", reversed))
}

func TestAggregateGroupsByBarcode(t *testing.T) {
	results := map[string]registry.StoreResult{
		"alpha": {
			StoreID: "alpha",
			Products: []models.NormalizedProduct{
				product("Widget Pro", "0123456789012", price("alpha", 20, 0, true)),
			},
		},
		"beta": {
			StoreID: "beta",
			Products: []models.NormalizedProduct{
				// Different display name, same barcode: one logical product.
				product("Widget Pro (2024)", "0123456789012", price("beta", 18, 0, true)),
			},
		},
	}

	out := newService().Aggregate(results)

	require.Len(t, out, 1)
	assert.Equal(t, "0123456789012", out[0].Barcode)
	assert.Equal(t, 2, out[0].StoreCount)
	assert.Equal(t, "beta", out[0].Prices[0].StoreID)
	assert.True(t, out[0].Prices[0].IsBestDeal)
}

func TestAggregateGroupsByNormalizedName(t *testing.T) {
	results := map[string]registry.StoreResult{
		"alpha": {
			StoreID: "alpha",
			Products: []models.NormalizedProduct{
				product("Widget  Deluxe", "", price("alpha", 30, 0, true)),
			},
		},
		"beta": {
			StoreID: "beta",
			Products: []models.NormalizedProduct{
				product("widget deluxe", "", price("beta", 28, 0, true)),
			},
		},
	}

	out := newService().Aggregate(results)

	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].StoreCount)
}

func TestAggregateSeparatesDistinctProducts(t *testing.T) {
	results := map[string]registry.StoreResult{
		"alpha": {
			StoreID: "alpha",
			Products: []models.NormalizedProduct{
				product("Cheap Thing", "", price("alpha", 5, 0, true)),
				product("Pricey Thing", "", price("alpha", 50, 0, true)),
			},
		},
	}

	out := newService().Aggregate(results)

	require.Len(t, out, 2)
	// Groups come back ordered by best total price.
	assert.Equal(t, "Cheap Thing", out[0].ProductName)
	assert.Equal(t, "Pricey Thing", out[1].ProductName)
}

func TestAggregateIgnoresFailedStores(t *testing.T) {
	results := map[string]registry.StoreResult{
		"alpha": {
			StoreID: "alpha",
			Products: []models.NormalizedProduct{
				product("Widget", "", price("alpha", 10, 0, true)),
			},
		},
		"beta": {StoreID: "beta", Err: assert.AnError},
	}

	out := newService().Aggregate(results)

	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].StoreCount)
}

func TestAggregateIsDeterministicAcrossMapOrder(t *testing.T) {
	svc := newService()
	results := map[string]registry.StoreResult{}
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		results[id] = registry.StoreResult{
			StoreID: id,
			Products: []models.NormalizedProduct{
				product("Widget", "", price(id, 10, 0, true)),
			},
		}
	}

	first := svc.Aggregate(results)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, svc.Aggregate(results))
	}
}

func TestAggregateCustomMatcher(t *testing.T) {
	// Group everything into a single bucket.
	svc := New(func(models.NormalizedProduct) string { return "all" }, "en-US", zerolog.Nop())

	results := map[string]registry.StoreResult{
		"alpha": {
			StoreID: "alpha",
			Products: []models.NormalizedProduct{
				product("One", "", price("alpha", 10, 0, true)),
				product("Two", "", price("alpha", 20, 0, true)),
			},
		},
	}

	out := svc.Aggregate(results)

	require.Len(t, out, 1)
	assert.Len(t, out[0].Prices, 2)
}
