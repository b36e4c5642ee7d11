package extraction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineItems bounds how many table rows end up on a record
const MaxLineItems = 10

// Currency is an ISO 4217 code the engine knows how to detect
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
	JPY Currency = "JPY"
)

// ParseCurrency validates a currency code, e.g. from a flag
func ParseCurrency(code string) (Currency, error) {
	switch c := Currency(code); c {
	case USD, EUR, GBP, INR, JPY:
		return c, nil
	}
	return "", fmt.Errorf("unsupported currency: %q", code)
}

// Status is a coarse confidence tier derived from which key fields resolved
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Date is a calendar date without time of day
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}
	d.Time = t
	return nil
}

// VendorInfo describes the party issuing the invoice
type VendorInfo struct {
	Name    string `json:"vendor_name"`
	Address string `json:"vendor_address,omitempty"`
	Phone   string `json:"vendor_phone,omitempty"`
	Email   string `json:"vendor_email,omitempty"`
	TaxID   string `json:"vendor_tax_id,omitempty"`
}

// CustomerInfo describes the billed party
type CustomerInfo struct {
	Name    string `json:"customer_name"`
	Address string `json:"customer_address,omitempty"`
	Phone   string `json:"customer_phone,omitempty"`
}

// LineItem is one reconstructed row of the products table
type LineItem struct {
	ProductName string              `json:"product_name"`
	ModelNumber string              `json:"model_number,omitempty"`
	Description string              `json:"description,omitempty"`
	Quantity    *float64            `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	TotalPrice  decimal.NullDecimal `json:"total_price"`
}

// Record is the structured result of one extraction call.
// Optional strings are empty when absent, optional amounts are invalid
// NullDecimals and optional dates are nil.
type Record struct {
	InvoiceNumber  string              `json:"invoice_number,omitempty"`
	InvoiceDate    *Date               `json:"invoice_date"`
	DueDate        *Date               `json:"due_date"`
	Subtotal       decimal.NullDecimal `json:"subtotal"`
	TaxAmount      decimal.NullDecimal `json:"tax_amount"`
	TotalAmount    decimal.NullDecimal `json:"total_amount"`
	ShippingAmount decimal.NullDecimal `json:"shipping_amount"`
	Currency       Currency            `json:"currency"`
	Vendor         *VendorInfo         `json:"vendor"`
	Customer       *CustomerInfo       `json:"customer"`
	Products       []LineItem          `json:"products"`
	Status         Status              `json:"extraction_status"`
	Confidence     float64             `json:"confidence_score"`
	RawText        string              `json:"raw_text,omitempty"`
	Errors         []string            `json:"errors"`
	Warnings       []string            `json:"warnings"`
}

// recordJSON breaks the MarshalJSON recursion
type recordJSON Record

// MarshalJSON writes the record without its raw text
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON(r)
	out.RawText = ""
	return json.Marshal(normalizeSlices(out))
}

// JSONWithRaw writes the record including the raw OCR text
func (r Record) JSONWithRaw() ([]byte, error) {
	return json.Marshal(normalizeSlices(recordJSON(r)))
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Record(in)
	return nil
}

// normalizeSlices makes empty lists serialize as [] instead of null
func normalizeSlices(r recordJSON) recordJSON {
	if r.Products == nil {
		r.Products = []LineItem{}
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	return r
}

// Classify derives the extraction status from the key fields
func Classify(r *Record) Status {
	hasNumber := r.InvoiceNumber != ""
	hasTotal := r.TotalAmount.Valid
	switch {
	case hasNumber && hasTotal:
		return StatusSuccess
	case hasNumber || hasTotal:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// ArithmeticConsistent reports whether subtotal + tax is within tolerance of
// total. It returns true when any of the three is missing.
func (r *Record) ArithmeticConsistent(tolerance decimal.Decimal) bool {
	if !r.Subtotal.Valid || !r.TaxAmount.Valid || !r.TotalAmount.Valid {
		return true
	}
	diff := r.Subtotal.Decimal.Add(r.TaxAmount.Decimal).Sub(r.TotalAmount.Decimal).Abs()
	return diff.LessThanOrEqual(tolerance)
}

func nullDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
