// Package serpapi provides a search client for the SerpAPI shopping engine.
package serpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/config"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
	"github.com/jimale-ku/pricelens/internal/useragent"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "serpapi"
	// baseURL is the SerpAPI search endpoint.
	baseURL = "https://serpapi.com/search.json"
	// maxLimit is the documented maximum number of shopping results.
	maxLimit = 100
)

// Store returns the store identity for this provider.
func Store() models.StoreInfo {
	return models.StoreInfo{
		ID:          ProviderName,
		Name:        "Google Shopping",
		Slug:        "google-shopping",
		BaseURL:     baseURL,
		Enabled:     true,
		Integration: models.IntegrationAPIKey,
	}
}

// Client issues search requests to SerpAPI.
type Client struct {
	http        *http.Client
	endpoint    string
	apiKey      string
	engine      string
	categoryMap map[string]string
	logger      zerolog.Logger
}

// New creates the SerpAPI client and normalizer pair.
func New(cfg config.SerpAPIConfig, logger zerolog.Logger) (*Client, *Normalizer) {
	c := &Client{
		http:        &http.Client{Timeout: 30 * time.Second},
		endpoint:    baseURL,
		apiKey:      cfg.APIKey,
		engine:      cfg.Engine,
		categoryMap: cfg.CategoryMap,
		logger:      logger.With().Str("provider", ProviderName).Logger(),
	}
	return c, &Normalizer{}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// MaxLimit returns the provider's documented result maximum.
func (c *Client) MaxLimit() int {
	return maxLimit
}

// Search runs a shopping search for a free-text query.
func (c *Client) Search(ctx context.Context, opts models.SearchOptions) (provider.RawResponse, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty query"))
	}

	limit := opts.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", c.apiKey)
	if facet, ok := c.categoryMap[opts.Category]; ok {
		params.Set("tbs", facet)
	}
	if opts.Locale != "" {
		if lang, _, found := strings.Cut(opts.Locale, "-"); found {
			params.Set("hl", lang)
		}
	}

	return c.get(ctx, c.endpoint+"?"+params.Encode(), query)
}

// Lookup searches for offers by barcode. SerpAPI has no dedicated identifier
// endpoint; a barcode query on the shopping engine returns its listings.
func (c *Client) Lookup(ctx context.Context, identifier string) (provider.RawResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty identifier"))
	}

	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", identifier)
	params.Set("api_key", c.apiKey)

	return c.get(ctx, c.endpoint+"?"+params.Encode(), identifier)
}

func (c *Client) get(ctx context.Context, rawURL, query string) (provider.RawResponse, error) {
	c.logger.Debug().Str("query", query).Msg("fetching shopping results")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}
	req.Header.Set("User-Agent", useragent.Random())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return provider.RawResponse{}, provider.Classify(ProviderName, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindNetwork, ProviderName, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return provider.RawResponse{}, provider.Classify(ProviderName, resp.StatusCode, nil)
	}

	return provider.RawResponse{
		Provider:   ProviderName,
		Body:       body,
		StatusCode: resp.StatusCode,
	}, nil
}
