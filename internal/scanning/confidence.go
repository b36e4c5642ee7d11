package scanning

import (
	"regexp"
	"strings"
)

var (
	reDateLike     = regexp.MustCompile(`\b\d{1,4}[/.\-]\d{1,2}[/.\-]\d{2,4}\b`)
	reCurrencyLike = regexp.MustCompile(`\b(?:usd|eur|gbp|inr|jpy|rs)\b|[$£€¥₹]`)
	reAmountLike   = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*\.\d{2}\b|\b\d+\.\d{2}\b`)
	reInvoiceLike  = regexp.MustCompile(`\b(?:invoice|bill|total)\b`)
)

// HeuristicConfidence scores transcribed text for providers that report no
// confidence of their own. It starts at a base and adds a fixed amount for
// each invoice artifact seen.
func HeuristicConfidence(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	lower := strings.ToLower(text)
	score := 0.2
	if reDateLike.MatchString(lower) {
		score += 0.2
	}
	if reCurrencyLike.MatchString(lower) {
		score += 0.15
	}
	if reAmountLike.MatchString(lower) {
		score += 0.15
	}
	if reInvoiceLike.MatchString(lower) {
		score += 0.1
	}
	if len(text) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
