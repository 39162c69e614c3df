// Package scrapingbee provides a client for retailers reached through the
// ScrapingBee proxy-extraction API. The proxy fetches the retailer page and
// applies CSS extraction rules server-side, returning structured JSON.
package scrapingbee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/config"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "scrapingbee"
	// baseURL is the ScrapingBee API endpoint.
	baseURL = "https://app.scrapingbee.com/api/v1/"
)

// maxLimit bounds results per page; the proxy returns one result page.
const maxLimit = 40

// extractRules is the server-side extraction spec for retailer search pages.
const extractRules = `{
	"products": {
		"selector": "[data-item-id]",
		"type": "list",
		"output": {
			"title": "[data-automation-id=product-title]",
			"price": "[data-automation-id=product-price]",
			"shipping": ".shipping-msg",
			"link": {"selector": "a", "output": "@href"},
			"image": {"selector": "img", "output": "@src"},
			"availability": ".availability-msg"
		}
	}
}`

// Store returns the store identity for the configured target retailer.
func Store(cfg config.ScrapingBeeConfig) models.StoreInfo {
	return models.StoreInfo{
		ID:          cfg.StoreID,
		Name:        cfg.StoreName,
		Slug:        cfg.StoreID,
		BaseURL:     cfg.TargetBase,
		Enabled:     true,
		Integration: models.IntegrationAPIKey,
	}
}

// Client fetches retailer search pages through the extraction proxy.
type Client struct {
	http     *http.Client
	endpoint string
	cfg      config.ScrapingBeeConfig
	logger   zerolog.Logger
}

// New creates the ScrapingBee client and normalizer pair.
func New(cfg config.ScrapingBeeConfig, logger zerolog.Logger) (*Client, *Normalizer) {
	c := &Client{
		http:     &http.Client{Timeout: 60 * time.Second},
		endpoint: baseURL,
		cfg:      cfg,
		logger:   logger.With().Str("provider", ProviderName).Logger(),
	}
	return c, &Normalizer{store: Store(cfg)}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// MaxLimit returns the result maximum for one proxied page.
func (c *Client) MaxLimit() int {
	return maxLimit
}

// Search fetches the retailer's search results page for a free-text query.
func (c *Client) Search(ctx context.Context, opts models.SearchOptions) (provider.RawResponse, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty query"))
	}
	return c.fetch(ctx, query)
}

// Lookup fetches offers by barcode through the retailer's search page.
func (c *Client) Lookup(ctx context.Context, identifier string) (provider.RawResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty identifier"))
	}
	return c.fetch(ctx, identifier)
}

func (c *Client) fetch(ctx context.Context, query string) (provider.RawResponse, error) {
	target := fmt.Sprintf("%s/search?q=%s", strings.TrimRight(c.cfg.TargetBase, "/"), url.QueryEscape(query))

	params := url.Values{}
	params.Set("api_key", c.cfg.APIKey)
	params.Set("url", target)
	params.Set("extract_rules", extractRules)

	c.logger.Debug().Str("target", target).Msg("fetching through extraction proxy")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}
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
