// Package models provides shared data types for the price comparison service.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// IntegrationType describes how a store's price data is obtained.
type IntegrationType string

const (
	// IntegrationAPIKey indicates a provider authenticated with an API key.
	IntegrationAPIKey IntegrationType = "api_key"
	// IntegrationAffiliate indicates an affiliate program API with signed requests.
	IntegrationAffiliate IntegrationType = "affiliate"
	// IntegrationScraped indicates prices extracted from storefront HTML.
	IntegrationScraped IntegrationType = "scraped"
)

// StoreInfo is the identity of one price source. Immutable after construction.
type StoreInfo struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	BaseURL     string          `json:"base_url"`
	Enabled     bool            `json:"enabled"`
	Integration IntegrationType `json:"integration"`
}

// NormalizedPrice is one price observation from one store.
// Price is always > 0 and TotalPrice >= Price; records violating this are
// dropped during normalization and never constructed.
type NormalizedPrice struct {
	StoreID        string          `json:"store_id"`
	StoreName      string          `json:"store_name"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	FormattedPrice string          `json:"formatted_price"`
	InStock        bool            `json:"in_stock"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	ProductURL     string          `json:"product_url"`
	FetchedAt      time.Time       `json:"fetched_at"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// NormalizedProduct is one product observation from one provider.
// Carries at least one valid price; records without one are dropped.
type NormalizedProduct struct {
	Name           string            `json:"name"`
	Barcode        string            `json:"barcode,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	Image          string            `json:"image,omitempty"`
	Prices         []NormalizedPrice `json:"prices"`
	SourceProvider string            `json:"source_provider"`
	FetchedAt      time.Time         `json:"fetched_at"`
}

// SearchOptions holds the parameters of one product search.
type SearchOptions struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Category string `json:"category,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// HealthStatus is the advisory per-adapter health indicator.
type HealthStatus string

const (
	// HealthUnknown is the initial state before any completed operation.
	HealthUnknown HealthStatus = "unknown"
	// HealthHealthy follows any successful operation.
	HealthHealthy HealthStatus = "healthy"
	// HealthDegraded indicates 1-4 consecutive failures.
	HealthDegraded HealthStatus = "degraded"
	// HealthDown indicates 5 or more consecutive failures.
	HealthDown HealthStatus = "down"
)

// HealthSnapshot is a point-in-time copy of an adapter's health state.
type HealthSnapshot struct {
	Status              HealthStatus `json:"status"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastSuccessAt       *time.Time   `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time   `json:"last_failure_at,omitempty"`
	LastError           string       `json:"last_error,omitempty"`
}

// RankedPrice is a NormalizedPrice with its position in an aggregated result.
type RankedPrice struct {
	NormalizedPrice
	Rank            int    `json:"rank"`
	IsBestDeal      bool   `json:"is_best_deal"`
	PriceDifference string `json:"price_difference,omitempty"`
}

// AggregatedResult is the ranked, deduplicated price list for one logical
// product. Built fresh per query and never mutated after construction.
type AggregatedResult struct {
	ProductName   string          `json:"product_name"`
	Barcode       string          `json:"barcode,omitempty"`
	Prices        []RankedPrice   `json:"prices"`
	PriceSpread   decimal.Decimal `json:"price_spread"`
	StoreCount    int             `json:"store_count"`
	AllOutOfStock bool            `json:"all_out_of_stock"`
}

// StoreStatus holds the operational status of one store adapter.
type StoreStatus struct {
	Enabled     bool            `json:"enabled"`
	Integration IntegrationType `json:"integration"`
	Health      HealthSnapshot  `json:"health"`
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status           string                 `json:"status"`
	UptimeSeconds    int64                  `json:"uptime_seconds"`
	SchedulerRunning bool                   `json:"scheduler_running"`
	NextRefreshAt    *time.Time             `json:"next_refresh_at,omitempty"`
	LastRefreshAt    *time.Time             `json:"last_refresh_at,omitempty"`
	Stores           map[string]StoreStatus `json:"stores"`
	Database         DatabaseStatus         `json:"database"`
}

// DatabaseStatus holds the database connection status.
type DatabaseStatus struct {
	Connected         bool  `json:"connected"`
	TotalPricesStored int64 `json:"total_prices_stored"`
}

// currencySymbols covers the currencies the wired providers report. Unknown
// codes fall back to "<CODE> ".
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "CA$",
}

// FormatAmount renders a monetary amount for display. The numeric value stays
// the source of truth for comparisons; this output is presentation-only and
// must never be parsed back.
func FormatAmount(d decimal.Decimal, code, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	sym, ok := currencySymbols[strings.ToUpper(code)]
	if !ok {
		sym = strings.ToUpper(code) + " "
	}
	f, _ := d.Float64()
	p := message.NewPrinter(tag)
	return sym + p.Sprint(number.Decimal(f,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
