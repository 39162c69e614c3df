package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		code   string
		locale string
		want   string
	}{
		{"usd", 1.01, "USD", "en-US", "$1.01"},
		{"usd whole", 3, "USD", "en-US", "$3.00"},
		{"usd thousands", 1299.99, "USD", "en-US", "$1,299.99"},
		{"eur", 9.5, "EUR", "en-US", "€9.50"},
		{"gbp", 20, "GBP", "en-US", "£20.00"},
		{"lowercase code", 5, "usd", "en-US", "$5.00"},
		{"unknown code", 5, "SEK", "en-US", "SEK 5.00"},
		{"bad locale falls back", 1.01, "USD", "not-a-locale", "$1.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatAmount(decimal.NewFromFloat(tt.amount), tt.code, tt.locale)
			assert.Equal(t, tt.want, got)
		})
	}
}
