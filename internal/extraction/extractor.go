package extraction

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// DefaultMaxInputBytes bounds the text handed to the pattern cascades
const DefaultMaxInputBytes = 64 << 10

// Options configures an Extractor. The zero value is usable; New fills in
// defaults for unset fields.
type Options struct {
	// DefaultCurrency is used when no currency marker appears in the text
	DefaultCurrency Currency
	// DayFirst reads 02/03/2025 as 2 March rather than February 3
	DayFirst bool
	// MaxInputBytes truncates longer input on a line boundary
	MaxInputBytes int
	// WarnOnMismatch adds a warning when subtotal + tax differs from total.
	// Amounts are never corrected.
	WarnOnMismatch bool
	// MismatchTolerance is the allowed difference for WarnOnMismatch
	MismatchTolerance decimal.Decimal
}

// DefaultOptions falls back to rupees and reads dates day first
func DefaultOptions() Options {
	return Options{
		DefaultCurrency:   INR,
		DayFirst:          true,
		MaxInputBytes:     DefaultMaxInputBytes,
		MismatchTolerance: decimal.NewFromFloat(0.01),
	}
}

// resolver fills one group of record fields from normalized text. Resolvers
// never read each other's output.
type resolver func(e *Extractor, text string, rec *Record)

var defaultResolvers = []resolver{
	resolveIdentity,
	resolveDates,
	resolveMoney,
	resolveParties,
	resolveProducts,
}

// Extractor turns OCR text into a Record. It holds configuration only and
// is safe for concurrent use.
type Extractor struct {
	opts      Options
	logger    *slog.Logger
	resolvers []resolver
}

// New creates an Extractor
func New(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = INR
	}
	if opts.MaxInputBytes <= 0 {
		opts.MaxInputBytes = DefaultMaxInputBytes
	}
	return &Extractor{opts: opts, logger: logger, resolvers: defaultResolvers}
}

// Options returns the extractor's effective configuration
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract never fails: malformed, empty or hostile input yields a record
// with status failed and the reason in Errors.
func (e *Extractor) Extract(text string) (rec *Record) {
	rec = e.emptyRecord(text)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panicked", "panic", r)
			rec = e.emptyRecord(text)
			rec.Errors = append(rec.Errors, fmt.Sprintf("unexpected extraction failure: %v", r))
		}
	}()

	norm := Normalize(text)
	if norm == "" {
		rec.Errors = append(rec.Errors, "no text to extract from")
		return rec
	}
	if cut, truncated := truncateInput(norm, e.opts.MaxInputBytes); truncated {
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("input truncated to %d bytes", len(cut)))
		norm = cut
	}

	for _, resolve := range e.resolvers {
		resolve(e, norm, rec)
	}

	if e.opts.WarnOnMismatch && !rec.ArithmeticConsistent(e.opts.MismatchTolerance) {
		rec.Warnings = append(rec.Warnings, "subtotal plus tax does not match total")
	}
	if rec.InvoiceNumber == "" {
		rec.Warnings = append(rec.Warnings, "invoice number not found")
	}
	if !rec.TotalAmount.Valid {
		rec.Warnings = append(rec.Warnings, "total amount not found")
	}

	rec.Status = Classify(rec)
	rec.Confidence = scoreConfidence(rec)
	e.checkSchema(rec)

	e.logger.Debug("invoice extracted",
		"status", rec.Status,
		"invoice_number", rec.InvoiceNumber,
		"products", len(rec.Products),
		"warnings", len(rec.Warnings),
	)
	return rec
}

const schemaWarning = "record failed schema validation"

// checkSchema validates the record's JSON form before it is handed out. A
// violation is logged and surfaced as a warning.
func (e *Extractor) checkSchema(rec *Record) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = ValidateRecordJSON(data)
	}
	if err != nil {
		e.logger.Error("extracted record violates the output schema", "error", err)
		rec.Warnings = append(rec.Warnings, schemaWarning)
	}
}

func (e *Extractor) emptyRecord(text string) *Record {
	return &Record{
		Currency: e.opts.DefaultCurrency,
		Status:   StatusFailed,
		RawText:  text,
		Products: []LineItem{},
		Errors:   []string{},
		Warnings: []string{},
	}
}

func resolveIdentity(_ *Extractor, text string, rec *Record) {
	rec.InvoiceNumber = InvoiceNumber(text).Value
}

func resolveDates(e *Extractor, text string, rec *Record) {
	rec.InvoiceDate = dateField(rec, "invoice_date", InvoiceDate(text, e.opts.DayFirst))
	rec.DueDate = dateField(rec, "due_date", DueDate(text, e.opts.DayFirst))
}

func resolveMoney(e *Extractor, text string, rec *Record) {
	amounts := ResolveAmounts(text, e.opts.DefaultCurrency)
	rec.Currency = amounts.Currency
	rec.TotalAmount = amountField(rec, "total_amount", amounts.Total)
	rec.Subtotal = amountField(rec, "subtotal", amounts.Subtotal)
	rec.TaxAmount = amountField(rec, "tax_amount", amounts.Tax)
	rec.ShippingAmount = amountField(rec, "shipping_amount", amounts.Shipping)
}

func resolveParties(_ *Extractor, text string, rec *Record) {
	rec.Vendor = ResolveVendor(text)
	rec.Customer = ResolveCustomer(text)
}

func resolveProducts(_ *Extractor, text string, rec *Record) {
	if items := ResolveLineItems(text); items != nil {
		rec.Products = items
	}
}

func dateField(rec *Record, name string, r Result[Date]) *Date {
	switch r.State {
	case Parsed:
		d := r.Value
		return &d
	case Invalid:
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s: could not parse %q", name, r.Raw))
	}
	return nil
}

func amountField(rec *Record, name string, r Result[decimal.Decimal]) decimal.NullDecimal {
	switch r.State {
	case Parsed:
		return nullDecimal(r.Value)
	case Invalid:
		rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s: could not parse %q", name, r.Raw))
	}
	return decimal.NullDecimal{}
}
