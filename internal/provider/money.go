package provider

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney converts a provider price string like "$1,299.99", "1.299,99 €"
// or "USD 12.50" into a decimal amount.
func ParseMoney(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric value in %q", s)
	}

	// Decide which separator is decimal: the right-most one wins, the other
	// is grouping. "1.299,99" and "1,299.99" both resolve correctly.
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %q: %w", s, err)
	}
	return d, nil
}
