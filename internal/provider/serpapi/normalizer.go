package serpapi

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

// apiResponse represents the JSON response from the SerpAPI shopping engine.
type apiResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
}

// shoppingResult represents a single offer in shopping_results.
type shoppingResult struct {
	Title          string   `json:"title"`
	Price          string   `json:"price"`
	ExtractedPrice float64  `json:"extracted_price"`
	Link           string   `json:"link"`
	Source         string   `json:"source"`
	Thumbnail      string   `json:"thumbnail"`
	Delivery       string   `json:"delivery"`
	Extensions     []string `json:"extensions"`
}

// Normalizer maps SerpAPI shopping payloads into normalized products.
type Normalizer struct{}

// Normalize maps the payload into normalized products, one per shopping
// result since each result is a distinct seller offer.
func (n *Normalizer) Normalize(raw provider.RawResponse, fetchedAt time.Time) (provider.NormalizeResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return provider.NormalizeResult{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}

	out := provider.NormalizeResult{}
	for _, r := range resp.ShoppingResults {
		name := strings.TrimSpace(r.Title)
		if name == "" {
			out.Dropped++
			continue
		}

		price := decimal.NewFromFloat(r.ExtractedPrice)
		if !price.IsPositive() && r.Price != "" {
			if parsed, err := provider.ParseMoney(r.Price); err == nil {
				price = parsed
			}
		}
		if !price.IsPositive() {
			out.Dropped++
			continue
		}

		shipping := parseDelivery(r.Delivery)
		total := price.Add(shipping)

		storeName := strings.TrimSpace(r.Source)
		if storeName == "" {
			storeName = "Google Shopping"
		}

		np := models.NormalizedPrice{
			StoreID:        slugify(storeName),
			StoreName:      storeName,
			Price:          price,
			Currency:       "USD",
			FormattedPrice: models.FormatAmount(price, "USD", "en-US"),
			InStock:        !hasExtension(r.Extensions, "out of stock"),
			ShippingCost:   shipping,
			TotalPrice:     total,
			ProductURL:     r.Link,
			FetchedAt:      fetchedAt,
			Metadata: map[string]any{
				"delivery": r.Delivery,
			},
		}

		out.Products = append(out.Products, models.NormalizedProduct{
			Name:           name,
			Image:          r.Thumbnail,
			Prices:         []models.NormalizedPrice{np},
			SourceProvider: ProviderName,
			FetchedAt:      fetchedAt,
		})
	}

	return out, nil
}

// parseDelivery extracts a shipping cost from strings like "+$5.99 delivery"
// or "Free delivery". Unparseable values count as free shipping rather than
// dropping the offer.
func parseDelivery(s string) decimal.Decimal {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || strings.Contains(s, "free") {
		return decimal.Zero
	}
	if d, err := provider.ParseMoney(s); err == nil && d.IsPositive() {
		return d
	}
	return decimal.Zero
}

func hasExtension(extensions []string, needle string) bool {
	for _, e := range extensions {
		if strings.EqualFold(strings.TrimSpace(e), needle) {
			return true
		}
	}
	return false
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
