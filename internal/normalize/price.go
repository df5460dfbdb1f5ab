package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice interprets a raw price string as a decimal amount. All
// currency symbols, whitespace and thousands separators are stripped
// first. Returns nil, not zero, when the string carries no digits at
// all ("Free", "Sold out").
func ParsePrice(raw string) *float64 {
	cleaned := strings.Builder{}
	for _, r := range strings.TrimSpace(raw) {
		if (r >= '0' && r <= '9') || r == '.' {
			cleaned.WriteRune(r)
		}
	}
	if cleaned.Len() == 0 {
		return nil
	}

	value, err := strconv.ParseFloat(cleaned.String(), 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// DetectCurrency resolves the ISO code for a price. An explicit code
// wins; otherwise the raw price text is sniffed for a currency symbol;
// otherwise the adapter default applies.
func DetectCurrency(explicit, rawPrice, adapterDefault string) string {
	explicit = strings.ToUpper(strings.TrimSpace(explicit))
	if len(explicit) == 3 {
		return explicit
	}

	switch {
	case strings.ContainsRune(rawPrice, '£'):
		return "GBP"
	case strings.ContainsRune(rawPrice, '€'):
		return "EUR"
	case strings.ContainsRune(rawPrice, '$'):
		return "USD"
	}

	upper := strings.ToUpper(rawPrice)
	for _, code := range []string{"GBP", "EUR", "USD"} {
		if strings.Contains(upper, code) {
			return code
		}
	}

	return adapterDefault
}

// DiscountPercent derives the rounded discount from the original and
// current price. Produced only when it is actually positive; a price
// above the "original" yields nothing rather than a negative discount.
func DiscountPercent(price, originalPrice *float64) *int {
	if price == nil || originalPrice == nil {
		return nil
	}
	if *originalPrice <= 0 || *price >= *originalPrice {
		return nil
	}
	pct := int(math.Round((*originalPrice - *price) / *originalPrice * 100))
	if pct <= 0 {
		return nil
	}
	return &pct
}
