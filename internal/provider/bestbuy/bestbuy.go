// Package bestbuy scrapes product offers from the Best Buy storefront search
// page. No credentials involved; this is a scraped integration.
package bestbuy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
	"github.com/jimale-ku/pricelens/internal/useragent"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "bestbuy"
	// baseURL is the storefront search endpoint.
	baseURL = "https://www.bestbuy.com"
	// maxLimit is one search page worth of result tiles.
	maxLimit = 24
)

// scrapedItem is one search-result tile as captured from the page. The
// client emits these as a JSON payload so the normalizer sees the same
// RawResponse contract as the API-backed providers.
type scrapedItem struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	Link         string `json:"link"`
	Image        string `json:"image"`
	Availability string `json:"availability"`
	SKU          string `json:"sku"`
}

// Store returns the store identity for this provider.
func Store() models.StoreInfo {
	return models.StoreInfo{
		ID:          ProviderName,
		Name:        "Best Buy",
		Slug:        "best-buy",
		BaseURL:     baseURL,
		Enabled:     true,
		Integration: models.IntegrationScraped,
	}
}

// Client scrapes the storefront search page.
type Client struct {
	base   string
	logger zerolog.Logger
}

// New creates the Best Buy client and normalizer pair.
func New(logger zerolog.Logger) (*Client, *Normalizer) {
	c := &Client{
		base:   baseURL,
		logger: logger.With().Str("provider", ProviderName).Logger(),
	}
	return c, &Normalizer{}
}

// Enabled always returns true; scraping needs no credentials.
func (c *Client) Enabled() bool {
	return true
}

// MaxLimit returns the result maximum for one scraped page.
func (c *Client) MaxLimit() int {
	return maxLimit
}

// Search scrapes the search results page for a free-text query.
func (c *Client) Search(ctx context.Context, opts models.SearchOptions) (provider.RawResponse, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty query"))
	}
	return c.scrape(ctx, query)
}

// Lookup scrapes offers by barcode; the storefront search accepts UPCs.
func (c *Client) Lookup(ctx context.Context, identifier string) (provider.RawResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty identifier"))
	}
	return c.scrape(ctx, identifier)
}

func (c *Client) scrape(ctx context.Context, query string) (provider.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return provider.RawResponse{}, provider.Classify(ProviderName, 0, err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(useragent.Random()),
	)
	collector.SetRequestTimeout(30 * time.Second)

	var items []scrapedItem
	collector.OnHTML(".sku-item", func(e *colly.HTMLElement) {
		items = append(items, scrapedItem{
			Title:        strings.TrimSpace(e.ChildText(".sku-title")),
			Price:        strings.TrimSpace(e.ChildText(".priceView-customer-price span:first-child")),
			Link:         e.Request.AbsoluteURL(e.ChildAttr(".sku-title a", "href")),
			Image:        e.ChildAttr("img.product-image", "src"),
			Availability: strings.TrimSpace(e.ChildText(".fulfillment-add-to-cart-button")),
			SKU:          e.Attr("data-sku-id"),
		})
	})

	var visitErr error
	collector.OnError(func(r *colly.Response, err error) {
		visitErr = provider.Classify(ProviderName, r.StatusCode, nil)
		if r.StatusCode == 0 {
			visitErr = provider.Classify(ProviderName, 0, err)
		}
	})

	searchURL := fmt.Sprintf("%s/site/searchpage.jsp?st=%s", c.base, url.QueryEscape(query))
	c.logger.Debug().Str("url", searchURL).Msg("scraping search results")

	if err := collector.Visit(searchURL); err != nil && visitErr == nil {
		visitErr = provider.Classify(ProviderName, 0, err)
	}
	collector.Wait()
	if visitErr != nil {
		return provider.RawResponse{}, visitErr
	}

	body, err := json.Marshal(struct {
		Items []scrapedItem `json:"items"`
	}{Items: items})
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindUnknown, ProviderName, err)
	}

	c.logger.Debug().Int("tiles", len(items)).Msg("scraped search results")

	return provider.RawResponse{
		Provider:   ProviderName,
		Body:       body,
		StatusCode: http.StatusOK,
	}, nil
}
