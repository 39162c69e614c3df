package scrapingbee

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

// extractedPage is the proxy's extraction result for one search page.
type extractedPage struct {
	Products []extractedProduct `json:"products"`
}

type extractedProduct struct {
	Title        string `json:"title"`
	Price        string `json:"price"`
	Shipping     string `json:"shipping"`
	Link         string `json:"link"`
	Image        string `json:"image"`
	Availability string `json:"availability"`
}

// Normalizer maps extraction payloads into normalized products.
type Normalizer struct {
	store models.StoreInfo
}

// Normalize maps the extracted page into normalized products.
func (n *Normalizer) Normalize(raw provider.RawResponse, fetchedAt time.Time) (provider.NormalizeResult, error) {
	var page extractedPage
	if err := json.Unmarshal(raw.Body, &page); err != nil {
		return provider.NormalizeResult{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}

	out := provider.NormalizeResult{}
	for _, p := range page.Products {
		name := strings.TrimSpace(p.Title)
		if name == "" {
			out.Dropped++
			continue
		}

		price, err := provider.ParseMoney(p.Price)
		if err != nil || !price.IsPositive() {
			out.Dropped++
			continue
		}

		shipping := decimal.Zero
		if s := strings.TrimSpace(p.Shipping); s != "" && !strings.Contains(strings.ToLower(s), "free") {
			if d, perr := provider.ParseMoney(s); perr == nil && d.IsPositive() {
				shipping = d
			}
		}

		link := p.Link
		if strings.HasPrefix(link, "/") {
			link = strings.TrimRight(n.store.BaseURL, "/") + link
		}

		np := models.NormalizedPrice{
			StoreID:        n.store.ID,
			StoreName:      n.store.Name,
			Price:          price,
			Currency:       "USD",
			FormattedPrice: models.FormatAmount(price, "USD", "en-US"),
			InStock:        !strings.Contains(strings.ToLower(p.Availability), "out of stock"),
			ShippingCost:   shipping,
			TotalPrice:     price.Add(shipping),
			ProductURL:     link,
			FetchedAt:      fetchedAt,
		}

		out.Products = append(out.Products, models.NormalizedProduct{
			Name:           name,
			Image:          p.Image,
			Prices:         []models.NormalizedPrice{np},
			SourceProvider: ProviderName,
			FetchedAt:      fetchedAt,
		})
	}

	return out, nil
}
