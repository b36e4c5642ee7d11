package extraction

// field weights for the confidence heuristic; they sum to 1
const (
	weightNumber   = 0.25
	weightTotal    = 0.25
	weightProducts = 0.15
	weightDate     = 0.10
	weightVendor   = 0.10
	weightCustomer = 0.05
	weightSubtotal = 0.05
	weightTax      = 0.05
)

// scoreConfidence is a heuristic, not a probability: each resolved field
// adds its weight.
func scoreConfidence(r *Record) float64 {
	score := 0.0
	if r.InvoiceNumber != "" {
		score += weightNumber
	}
	if r.TotalAmount.Valid {
		score += weightTotal
	}
	if len(r.Products) > 0 {
		score += weightProducts
	}
	if r.InvoiceDate != nil {
		score += weightDate
	}
	if r.Vendor != nil {
		score += weightVendor
	}
	if r.Customer != nil {
		score += weightCustomer
	}
	if r.Subtotal.Valid {
		score += weightSubtotal
	}
	if r.TaxAmount.Valid {
		score += weightTax
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
