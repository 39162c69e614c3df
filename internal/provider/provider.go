// Package provider defines the contracts implemented by price data providers:
// a Client issues one outbound request and returns the raw payload, a
// Normalizer maps that payload into the canonical product/price shape.
package provider

import (
	"context"
	"time"

	"github.com/jimale-ku/pricelens/internal/models"
)

// RawResponse is a provider-specific payload as returned by a Client.
type RawResponse struct {
	// Provider is the provider identifier the payload came from.
	Provider string
	// Body is the raw payload bytes.
	Body []byte
	// StatusCode is the HTTP status of the upstream response.
	StatusCode int
}

// NormalizeResult carries the surviving records of one normalization pass.
// Dropped counts candidate records discarded for a missing name or zero
// valid prices; they are never surfaced individually.
type NormalizeResult struct {
	Products []models.NormalizedProduct
	Dropped  int
}

// Client issues outbound requests to one external price-data provider.
type Client interface {
	// Search runs a free-text product search.
	Search(ctx context.Context, opts models.SearchOptions) (RawResponse, error)

	// Lookup fetches offers for a product identifier (barcode/GTIN/ASIN).
	Lookup(ctx context.Context, identifier string) (RawResponse, error)

	// Enabled reports whether the required credentials are configured.
	Enabled() bool

	// MaxLimit returns the provider's documented maximum result count.
	MaxLimit() int
}

// Normalizer maps a raw provider payload into normalized products.
// Implementations are pure: identical raw input always produces identical
// output, with fetchedAt injected by the caller for testability.
type Normalizer interface {
	Normalize(raw RawResponse, fetchedAt time.Time) (NormalizeResult, error)
}
