package resolver

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Merchants whose offers are dropped at ingestion. Matching is a
// case-insensitive substring check against the merchant name.
var blockedMerchants = []string{
	"macys canada",
	"macy's canada",
}

func merchantBlocked(name string) bool {
	lower := strings.ToLower(name)
	for _, blocked := range blockedMerchants {
		if strings.Contains(lower, blocked) {
			return true
		}
	}
	return false
}

var oneCent = decimal.New(1, -2)

func withinOneCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(oneCent)
}

// formatAmount renders a currency string with two decimal places.
func formatAmount(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// parseAmount extracts the numeric value from a formatted price string.
func parseAmount(price string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(price))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Currency patterns tried against free search-result text, in order. This is
// a noisy parser: numbers that merely look like prices will match.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+\.?\d*`),
	regexp.MustCompile(`(?i)USD\s*[\d,]+\.?\d*`),
	regexp.MustCompile(`\$\s*[\d,]+(?:\.\d{2})?`),
	regexp.MustCompile(`(?i)(?:price|precio|cost):\s*\$?[\d,]+\.?\d*`),
	regexp.MustCompile(`(?i)MXN\s*\$?[\d,]+\.?\d*`),
}

var nonAmount = regexp.MustCompile(`[^0-9.]`)

// extractPrices pulls price-looking amounts out of free text and returns them
// formatted, deduplicated by one-cent proximity, in the order found. Values
// outside (0, 1,000,000) are rejected.
func extractPrices(text string) []string {
	if text == "" {
		return nil
	}

	var matches []string
	for _, pattern := range pricePatterns {
		matches = append(matches, pattern.FindAllString(text, -1)...)
	}

	upper := decimal.NewFromInt(1_000_000)
	var amounts []decimal.Decimal
	var out []string
	for _, match := range matches {
		cleaned := strings.TrimSuffix(nonAmount.ReplaceAllString(match, ""), ".")
		amount, err := decimal.NewFromString(cleaned)
		if err != nil {
			continue
		}
		if !amount.IsPositive() || !amount.LessThan(upper) {
			continue
		}

		duplicate := false
		for _, seen := range amounts {
			if withinOneCent(seen, amount) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		amounts = append(amounts, amount)
		out = append(out, formatAmount(amount))
	}

	return out
}
