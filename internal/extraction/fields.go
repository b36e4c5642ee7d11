package extraction

import "regexp"

const invoiceCode = `([A-Z0-9][A-Z0-9/\-]*)`

// Labels and column headers that OCR often places where an invoice number
// is expected.
var reservedNumberWords = []string{"TAX", "GST", "HSN", "CIN", "QTY", "INVOICE", "NO", "NUMBER", "DATE"}

var invoiceNumberRules = func() Cascade {
	notReserved := rejectWords(reservedNumberWords...)
	return Cascade{
		{Name: "invoice-no", Pattern: regexp.MustCompile(`(?i)Invoice[ \t]*No\b\.?[ \t]*[:#]?[ \t]*` + invoiceCode), Accept: notReserved},
		{Name: "invoice-number", Pattern: regexp.MustCompile(`(?i)Invoice[ \t]*(?:Number|#)[ \t]*:?[ \t]*` + invoiceCode), Accept: notReserved},
		{Name: "bill-no", Pattern: regexp.MustCompile(`(?i)Bill[ \t]*No\b\.?[ \t]*:?[ \t]*` + invoiceCode), Accept: notReserved},
		{Name: "bare-code", Pattern: regexp.MustCompile(`(?m)^[ \t]*([A-Z]{2,}[0-9]{6,})\b`), Accept: notReserved},
		{Name: "fiscal-code", Pattern: regexp.MustCompile(`\b([A-Z][0-9]{5,}/[0-9]{2,4})\b`), Accept: notReserved},
	}
}()

var (
	reEmail = regexp.MustCompile(`([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`)

	phoneRules = Cascade{
		{Name: "labeled-phone", Pattern: regexp.MustCompile(`(?i)(?:P:|Ph(?:one)?\.?[ \t]*:|Tel\.?[ \t]*:|Mobile[ \t]*:|Contact[ \t]*[-:]?)[ \t]*(\+?[0-9]{4,5}[\- ]?[0-9]{3,4}[\- ]?[0-9]{4})\b`)},
		{Name: "digit-run", Pattern: regexp.MustCompile(`\b([0-9]{10,12})\b`)},
	}

	taxIDRules = Cascade{
		{Name: "gstin-labeled", Pattern: regexp.MustCompile(`(?i:GSTIN|GST)[ \t]*(?i:No\.?|Number)?[ \t]*:?[ \t]*([0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z])\b`)},
		{Name: "gstin-bare", Pattern: regexp.MustCompile(`\b([0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z])\b`)},
	}
)

// InvoiceNumber runs the invoice-number cascade
func InvoiceNumber(text string) Match {
	return invoiceNumberRules.Find(text)
}

// InvoiceDate finds and parses the issue date. The catch-all rule skips the
// due date and keeps looking.
func InvoiceDate(text string, dayFirst bool) Result[Date] {
	rules := invoiceDateRules
	if due := dueDateRules.Find(text); due.Found {
		rules = append(Cascade(nil), invoiceDateRules...)
		last := &rules[len(rules)-1]
		last.Accept = func(value string) bool { return value != due.Value }
	}
	m := rules.Find(text)
	if !m.Found {
		return missing[Date]()
	}
	return ParseDate(m.Value, dayFirst)
}

// DueDate finds and parses the payment due date
func DueDate(text string, dayFirst bool) Result[Date] {
	m := dueDateRules.Find(text)
	if !m.Found {
		return missing[Date]()
	}
	return ParseDate(m.Value, dayFirst)
}

// Email returns the first email address anywhere in the text
func Email(text string) string {
	return reEmail.FindString(text)
}

// Phone returns the first labeled phone number, else the first 10-12 digit run
func Phone(text string) string {
	return phoneRules.Find(text).Value
}

// TaxID returns a GST-format tax identifier, labeled occurrences first
func TaxID(text string) string {
	return taxIDRules.Find(text).Value
}
