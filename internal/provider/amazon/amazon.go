// Package amazon provides a client for the Amazon Product Advertising API.
package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimale-ku/pricelens/internal/config"
	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
	"github.com/jimale-ku/pricelens/internal/signing"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "amazon"
	// maxLimit is the PA-API documented maximum item count per request.
	maxLimit = 10

	searchItemsPath   = "/paapi5/searchitems"
	getItemsPath      = "/paapi5/getitems"
	searchItemsTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
	getItemsTarget    = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"
)

// itemResources are the response fields requested from PA-API.
var itemResources = []string{
	"ItemInfo.Title",
	"ItemInfo.ByLineInfo",
	"ItemInfo.ExternalIds",
	"Images.Primary.Large",
	"Offers.Listings.Price",
	"Offers.Listings.Availability.Type",
	"Offers.Listings.DeliveryInfo.IsFreeShippingEligible",
	"Offers.Listings.MerchantInfo",
	"Offers.Summaries.LowestPrice",
}

// Store returns the store identity for this provider.
func Store() models.StoreInfo {
	return models.StoreInfo{
		ID:          ProviderName,
		Name:        "Amazon",
		Slug:        "amazon",
		BaseURL:     "https://www.amazon.com",
		Enabled:     true,
		Integration: models.IntegrationAffiliate,
	}
}

// Client issues signed requests to the Product Advertising API.
type Client struct {
	http     *http.Client
	cfg      config.AmazonConfig
	endpoint string
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates the Amazon client and normalizer pair.
func New(cfg config.AmazonConfig, logger zerolog.Logger) (*Client, *Normalizer) {
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		cfg:      cfg,
		endpoint: "https://" + cfg.Host,
		now:      time.Now,
		logger:   logger.With().Str("provider", ProviderName).Logger(),
	}
	return c, &Normalizer{}
}

// Enabled reports whether the access key, secret key and partner tag are all
// configured.
func (c *Client) Enabled() bool {
	return c.cfg.AccessKey != "" && c.cfg.SecretKey != "" && c.cfg.PartnerTag != ""
}

// MaxLimit returns the provider's documented result maximum.
func (c *Client) MaxLimit() int {
	return maxLimit
}

// Search runs a SearchItems request for a free-text query.
func (c *Client) Search(ctx context.Context, opts models.SearchOptions) (provider.RawResponse, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty query"))
	}

	limit := opts.Limit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	payload := map[string]any{
		"Keywords":    query,
		"ItemCount":   limit,
		"PartnerTag":  c.cfg.PartnerTag,
		"PartnerType": "Associates",
		"Resources":   itemResources,
	}
	if index, ok := c.cfg.CategoryMap[opts.Category]; ok {
		payload["SearchIndex"] = index
	}

	return c.post(ctx, searchItemsPath, searchItemsTarget, payload)
}

// Lookup runs a GetItems request for a product identifier.
func (c *Client) Lookup(ctx context.Context, identifier string) (provider.RawResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, errors.New("empty identifier"))
	}

	payload := map[string]any{
		"ItemIds":     []string{identifier},
		"ItemIdType":  "ASIN",
		"PartnerTag":  c.cfg.PartnerTag,
		"PartnerType": "Associates",
		"Resources":   itemResources,
	}

	return c.post(ctx, getItemsPath, getItemsTarget, payload)
}

func (c *Client) post(ctx context.Context, path, target string, payload map[string]any) (provider.RawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}

	ts := c.now()
	sig := signing.Sign(signing.Request{
		Method: http.MethodPost,
		Path:   path,
		Headers: map[string]string{
			"content-type": "application/json; charset=utf-8",
			"host":         c.cfg.Host,
			"x-amz-date":   ts.UTC().Format("20060102T150405Z"),
			"x-amz-target": target,
		},
		Payload: body,
	}, signing.Credentials{
		AccessKey: c.cfg.AccessKey,
		SecretKey: c.cfg.SecretKey,
		Region:    c.cfg.Region,
		Service:   "ProductAdvertisingAPI",
	}, ts)

	c.logger.Debug().Str("path", path).Msg("calling product advertising API")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Amz-Date", sig.AmzDate)
	req.Header.Set("X-Amz-Target", target)
	req.Header.Set("Authorization", sig.Authorization)

	resp, err := c.http.Do(req)
	if err != nil {
		return provider.RawResponse{}, provider.Classify(ProviderName, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.RawResponse{}, provider.NewError(provider.KindNetwork, ProviderName, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return provider.RawResponse{}, provider.Classify(ProviderName, resp.StatusCode, nil)
	}

	return provider.RawResponse{
		Provider:   ProviderName,
		Body:       respBody,
		StatusCode: resp.StatusCode,
	}, nil
}
