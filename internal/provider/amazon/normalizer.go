package amazon

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jimale-ku/pricelens/internal/models"
	"github.com/jimale-ku/pricelens/internal/provider"
)

// apiResponse covers both SearchItems and GetItems responses.
type apiResponse struct {
	SearchResult *itemsResult `json:"SearchResult"`
	ItemsResult  *itemsResult `json:"ItemsResult"`
}

type itemsResult struct {
	Items []item `json:"Items"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		ByLineInfo struct {
			Brand struct {
				DisplayValue string `json:"DisplayValue"`
			} `json:"Brand"`
		} `json:"ByLineInfo"`
		ExternalIds struct {
			EANs struct {
				DisplayValues []string `json:"DisplayValues"`
			} `json:"EANs"`
		} `json:"ExternalIds"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings  []listing `json:"Listings"`
		Summaries []summary `json:"Summaries"`
	} `json:"Offers"`
}

type listing struct {
	Price struct {
		Amount        float64 `json:"Amount"`
		Currency      string  `json:"Currency"`
		DisplayAmount string  `json:"DisplayAmount"`
	} `json:"Price"`
	Availability struct {
		Type string `json:"Type"`
	} `json:"Availability"`
	DeliveryInfo struct {
		IsFreeShippingEligible bool `json:"IsFreeShippingEligible"`
	} `json:"DeliveryInfo"`
	MerchantInfo struct {
		Name string `json:"Name"`
	} `json:"MerchantInfo"`
}

type summary struct {
	LowestPrice struct {
		Amount   float64 `json:"Amount"`
		Currency string  `json:"Currency"`
	} `json:"LowestPrice"`
}

// Normalizer maps PA-API payloads into normalized products.
type Normalizer struct{}

// Normalize maps the payload into normalized products. Itemized listings are
// preferred over the offer summary: listings carry availability and shipping
// detail the summary lacks. The summary is the fallback when an item has no
// listings at all.
func (n *Normalizer) Normalize(raw provider.RawResponse, fetchedAt time.Time) (provider.NormalizeResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return provider.NormalizeResult{}, provider.NewError(provider.KindValidation, ProviderName, err)
	}

	result := resp.SearchResult
	if result == nil {
		result = resp.ItemsResult
	}
	if result == nil {
		return provider.NormalizeResult{}, nil
	}

	store := Store()
	out := provider.NormalizeResult{}
	for _, it := range result.Items {
		name := strings.TrimSpace(it.ItemInfo.Title.DisplayValue)
		if name == "" {
			out.Dropped++
			continue
		}

		prices := normalizeListings(it, store, fetchedAt)
		if len(prices) == 0 {
			prices = normalizeSummary(it, store, fetchedAt)
		}
		if len(prices) == 0 {
			out.Dropped++
			continue
		}

		barcode := ""
		if eans := it.ItemInfo.ExternalIds.EANs.DisplayValues; len(eans) > 0 {
			barcode = eans[0]
		}

		out.Products = append(out.Products, models.NormalizedProduct{
			Name:           name,
			Barcode:        barcode,
			Brand:          it.ItemInfo.ByLineInfo.Brand.DisplayValue,
			Image:          it.Images.Primary.Large.URL,
			Prices:         prices,
			SourceProvider: ProviderName,
			FetchedAt:      fetchedAt,
		})
	}

	return out, nil
}

func normalizeListings(it item, store models.StoreInfo, fetchedAt time.Time) []models.NormalizedPrice {
	var prices []models.NormalizedPrice
	for _, l := range it.Offers.Listings {
		price := decimal.NewFromFloat(l.Price.Amount)
		if !price.IsPositive() {
			continue
		}

		currency := l.Price.Currency
		if currency == "" {
			currency = "USD"
		}

		formatted := l.Price.DisplayAmount
		if formatted == "" {
			formatted = models.FormatAmount(price, currency, "en-US")
		}

		merchant := l.MerchantInfo.Name
		if merchant == "" {
			merchant = store.Name
		}

		prices = append(prices, models.NormalizedPrice{
			StoreID:        store.ID,
			StoreName:      merchant,
			Price:          price,
			Currency:       currency,
			FormattedPrice: formatted,
			InStock:        strings.EqualFold(l.Availability.Type, "Now"),
			ShippingCost:   decimal.Zero,
			TotalPrice:     price,
			ProductURL:     it.DetailPageURL,
			FetchedAt:      fetchedAt,
			Metadata: map[string]any{
				"asin":          it.ASIN,
				"free_shipping": l.DeliveryInfo.IsFreeShippingEligible,
			},
		})
	}
	return prices
}

func normalizeSummary(it item, store models.StoreInfo, fetchedAt time.Time) []models.NormalizedPrice {
	for _, s := range it.Offers.Summaries {
		price := decimal.NewFromFloat(s.LowestPrice.Amount)
		if !price.IsPositive() {
			continue
		}

		currency := s.LowestPrice.Currency
		if currency == "" {
			currency = "USD"
		}

		return []models.NormalizedPrice{{
			StoreID:        store.ID,
			StoreName:      store.Name,
			Price:          price,
			Currency:       currency,
			FormattedPrice: models.FormatAmount(price, currency, "en-US"),
			InStock:        true,
			ShippingCost:   decimal.Zero,
			TotalPrice:     price,
			ProductURL:     it.DetailPageURL,
			FetchedAt:      fetchedAt,
			Metadata: map[string]any{
				"asin":         it.ASIN,
				"from_summary": true,
			},
		}}
	}
	return nil
}
