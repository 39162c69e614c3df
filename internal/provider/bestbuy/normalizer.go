package bestbuy

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

type scrapedPage struct {
	Items []scrapedItem `json:"items"`
}

// Normalizer maps scraped search tiles into normalized products.
type Normalizer struct{}

// Normalize maps scraped tiles into normalized products. Tiles without a
// usable title or price are dropped, not errors; pages render promo tiles
// in the same grid.
func (n *Normalizer) Normalize(raw provider.RawResponse, fetchedAt time.Time) (provider.NormalizeResult, error) {
	var page scrapedPage
	if err := json.Unmarshal(raw.Body, &page); err != nil {
		return provider.NormalizeResult{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}

	store := Store()
	out := provider.NormalizeResult{}
	for _, it := range page.Items {
		name := strings.TrimSpace(it.Title)
		if name == "" {
			out.Dropped++
			continue
		}

		price, err := provider.ParseMoney(it.Price)
		if err != nil || !price.IsPositive() {
			out.Dropped++
			continue
		}

		inStock := !strings.Contains(strings.ToLower(it.Availability), "sold out") &&
			!strings.Contains(strings.ToLower(it.Availability), "unavailable")

		np := models.NormalizedPrice{
			StoreID:        store.ID,
			StoreName:      store.Name,
			Price:          price,
			Currency:       "USD",
			FormattedPrice: models.FormatAmount(price, "USD", "en-US"),
			InStock:        inStock,
			ShippingCost:   decimal.Zero,
			TotalPrice:     price,
			ProductURL:     it.Link,
			FetchedAt:      fetchedAt,
			Metadata: map[string]any{
				"sku": it.SKU,
			},
		}

		out.Products = append(out.Products, models.NormalizedProduct{
			Name:           name,
			Image:          it.Image,
			Prices:         []models.NormalizedPrice{np},
			SourceProvider: ProviderName,
			FetchedAt:      fetchedAt,
		})
	}

	return out, nil
}
