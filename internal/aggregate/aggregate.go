// Package aggregate merges per-store results for a product query into
// ranked, deduplicated price lists.
package aggregate

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/registry"
)

// Matcher decides which logical product a record belongs to by returning a
// grouping key. The matching policy is a configuration point.
type Matcher func(models.NormalizedProduct) string

// MatchDefault groups by barcode when present, otherwise by case-folded,
// whitespace-collapsed name.
func MatchDefault(p models.NormalizedProduct) string {
	if p.Barcode != "" {
		return "barcode:" + p.Barcode
	}
	return "name:" + normalizeName(p.Name)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Service builds aggregated results from per-store fan-out results.
type Service struct {
	matcher Matcher
	locale  string
	logger  zerolog.Logger
}

// New creates an aggregation service. A nil matcher uses MatchDefault.
func New(matcher Matcher, locale string, logger zerolog.Logger) *Service {
	if matcher == nil {
		matcher = MatchDefault
	}
	if locale == "" {
		locale = "en-US"
	}
	return &Service{
		matcher: matcher,
		locale:  locale,
		logger:  logger.With().Str("component", "aggregate").Logger(),
	}
}

// Aggregate groups all products across stores by the matching policy and
// ranks each group's prices. Aggregation is idempotent: the same input
// yields the same ordering and best-deal assignment, and the input is not
// retained.
func (s *Service) Aggregate(results map[string]registry.StoreResult) []models.AggregatedResult {
	type group struct {
		name    string
		barcode string
		prices  []models.NormalizedPrice
	}

	// Stores iterate in sorted order so group names and barcodes resolve
	// deterministically regardless of map order.
	storeIDs := make([]string, 0, len(results))
	for id := range results {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)

	groups := make(map[string]*group)
	var keys []string
	for _, id := range storeIDs {
		for _, p := range results[id].Products {
			key := s.matcher(p)
			g, ok := groups[key]
			if !ok {
				g = &group{name: p.Name, barcode: p.Barcode}
				groups[key] = g
				keys = append(keys, key)
			}
			if g.barcode == "" && p.Barcode != "" {
				g.barcode = p.Barcode
			}
			g.prices = append(g.prices, p.Prices...)
		}
	}

	out := make([]models.AggregatedResult, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		out = append(out, s.Rank(g.name, g.barcode, g.prices))
	}

	// Groups ordered by their best total ascending, name as tiebreak.
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Prices) == 0 || len(out[j].Prices) == 0 {
			return len(out[i].Prices) > len(out[j].Prices)
		}
		cmp := out[i].Prices[0].TotalPrice.Cmp(out[j].Prices[0].TotalPrice)
		if cmp != 0 {
			return cmp < 0
		}
		return out[i].ProductName < out[j].ProductName
	})

	return out
}

// Rank orders one logical product's prices ascending by total price and
// assigns ranks, the best-deal flag and signed price differences.
// Out-of-stock entries are ranked but never marked best deal: an
// out-of-stock price is not a purchasable deal.
func (s *Service) Rank(name, barcode string, prices []models.NormalizedPrice) models.AggregatedResult {
	sorted := make([]models.NormalizedPrice, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := sorted[i].TotalPrice.Cmp(sorted[j].TotalPrice)
		if cmp != 0 {
			return cmp < 0
		}
		// Ties broken by store name for determinism.
		return sorted[i].StoreName < sorted[j].StoreName
	})

	bestIdx := -1
	for i, p := range sorted {
		if p.InStock {
			bestIdx = i
			break
		}
	}

	result := models.AggregatedResult{
		ProductName:   name,
		Barcode:       barcode,
		Prices:        make([]models.RankedPrice, 0, len(sorted)),
		AllOutOfStock: len(sorted) > 0 && bestIdx == -1,
	}

	var baseline decimal.Decimal
	if bestIdx >= 0 {
		baseline = sorted[bestIdx].TotalPrice
	} else if len(sorted) > 0 {
		baseline = sorted[0].TotalPrice
	}

	stores := make(map[string]struct{}, len(sorted))
	for i, p := range sorted {
		stores[p.StoreID] = struct{}{}
		rp := models.RankedPrice{
			NormalizedPrice: p,
			Rank:            i + 1,
			IsBestDeal:      i == bestIdx,
		}
		if i != bestIdx {
			rp.PriceDifference = s.formatDelta(p.TotalPrice.Sub(baseline), p.Currency)
		}
		result.Prices = append(result.Prices, rp)
	}
	result.StoreCount = len(stores)

	if len(sorted) > 0 {
		result.PriceSpread = sorted[len(sorted)-1].TotalPrice.Sub(sorted[0].TotalPrice)
	}

	return result
}

func (s *Service) formatDelta(d decimal.Decimal, currency string) string {
	sign := "+"
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + models.FormatAmount(d, currency, s.locale)
}
