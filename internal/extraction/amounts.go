package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts holds the four semantic amounts found on an invoice
type Amounts struct {
	Currency Currency
	Total    Result[decimal.Decimal]
	Subtotal Result[decimal.Decimal]
	Tax      Result[decimal.Decimal]
	Shipping Result[decimal.Decimal]
}

var currencyMarkers = []struct {
	currency Currency
	pattern  *regexp.Regexp
}{
	{INR, regexp.MustCompile(`\bINR\b|₹|\bRs\b`)},
	{USD, regexp.MustCompile(`\$|\bUSD\b`)},
	{EUR, regexp.MustCompile(`€|\bEUR\b`)},
	{GBP, regexp.MustCompile(`£|\bGBP\b`)},
	{JPY, regexp.MustCompile(`¥|\bJPY\b`)},
}

const (
	amountSep    = `(?:[ \t]*\([^)\n]{0,20}\))?[ \t]*[:\-]?[ \t]*`
	amountMarker = `(?:INR\.?|Rs\.?|₹|\$|USD|€|EUR|£|GBP|¥|JPY)?[ \t]*`
	amountNumber = `([0-9][0-9.,]*[0-9]|[0-9])\b`
	percentRate  = `(?:[ \t]*@?[ \t]*[0-9.]+[ \t]*%)?`
)

func amountRule(name, label string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(label + amountSep + amountMarker + amountNumber)}
}

var (
	totalRules = Cascade{
		amountRule("grand-total", `(?i)Grand[ \t]*Total`),
		amountRule("invoice-value", `(?i)Invoice[ \t]*Value`),
		amountRule("net-amount", `(?i)Net[ \t]*(?:Amount|Payable)`),
		amountRule("amount-due", `(?i)(?:Amount|Balance)[ \t]*(?:Due|Payable)`),
		// bare Total must open the line so "Sub Total" never satisfies it
		amountRule("total-line", `(?im)^[ \t]*Total(?:[ \t]*(?:Amount|Value|Due))?`),
	}

	subtotalRules = Cascade{
		amountRule("taxable-value", `(?i)Taxable[ \t]*(?:Value|Amount)`),
		amountRule("sub-total", `(?i)Sub[ \t\-]?Total`),
	}

	taxRules = Cascade{
		amountRule("total-tax", `(?i)Total[ \t]*Tax(?:[ \t]*Amount)?`+percentRate),
		amountRule("tax-amount", `(?i)Tax[ \t]*Amount`),
		amountRule("tax-line", `(?im)^[ \t]*(?:Sales[ \t]+|Service[ \t]+)?Tax\b`+percentRate),
		amountRule("gst", `(?i)\b(?:IGST|CGST|SGST|GST|VAT)\b`+percentRate),
	}

	shippingRules = Cascade{
		amountRule("shipping", `(?i)(?:Shipping|Freight|Delivery|Postage)(?:[ \t]*(?:&|and)[ \t]*Handling)?(?:[ \t]*(?:Charges?|Cost|Fee))?`),
	}
)

// DetectCurrency returns the first currency whose marker appears in the
// text, in priority order INR, USD, EUR, GBP, JPY, or fallback.
func DetectCurrency(text string, fallback Currency) Currency {
	for _, m := range currencyMarkers {
		if m.pattern.MatchString(text) {
			return m.currency
		}
	}
	return fallback
}

// ResolveAmounts resolves each semantic amount independently. No arithmetic
// relationship between them is checked or enforced.
func ResolveAmounts(text string, fallback Currency) Amounts {
	return Amounts{
		Currency: DetectCurrency(text, fallback),
		Total:    resolveAmount(totalRules, text),
		Subtotal: resolveAmount(subtotalRules, text),
		Tax:      resolveAmount(taxRules, text),
		Shipping: resolveAmount(shippingRules, text),
	}
}

func resolveAmount(rules Cascade, text string) Result[decimal.Decimal] {
	m := rules.Find(text)
	if !m.Found {
		return missing[decimal.Decimal]()
	}
	return ParseAmount(m.Value)
}

// ParseAmount converts a numeric literal with thousands separators into an
// exact decimal. Both 1,234.56 and 1.234,56 are understood.
func ParseAmount(raw string) Result[decimal.Decimal] {
	s := strings.TrimSpace(raw)
	if s == "" {
		return missing[decimal.Decimal]()
	}
	d, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil {
		return invalid[decimal.Decimal](raw)
	}
	return parsed(raw, d)
}

func normalizeNumber(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 == 2 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		if len(s)-lastDot-1 == 3 {
			return strings.ReplaceAll(s, ".", "")
		}
		return strings.ReplaceAll(s[:lastDot], ".", "") + s[lastDot:]
	}
	return s
}
