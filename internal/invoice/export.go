package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

const (
	invoicesSheet  = "Invoices"
	lineItemsSheet = "Line Items"
)

var invoiceHeaders = []string{
	"ID",
	"File",
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Vendor",
	"Vendor Tax ID",
	"Customer",
	"Currency",
	"Subtotal",
	"Tax",
	"Shipping",
	"Total",
	"Status",
	"Confidence",
	"OCR Provider",
	"Uploaded",
}

var lineItemHeaders = []string{
	"Invoice ID",
	"Invoice Number",
	"Product",
	"Model",
	"Description",
	"Quantity",
	"Unit Price",
	"Total",
}

// sheetWriter fills one sheet row by row
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) writeRow(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			w.err = fmt.Errorf("writing %s!%s: %w", w.sheet, cell, err)
			return
		}
	}
}

// buildWorkbook writes one row per invoice and one row per line item
func buildWorkbook(invoices []*Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the invoice sheet
	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(invoicesSheet); err == nil {
		f.SetActiveSheet(index)
	}

	inv := &sheetWriter{f: f, sheet: invoicesSheet}
	items := &sheetWriter{f: f, sheet: lineItemsSheet}
	inv.writeRow(toAny(invoiceHeaders)...)
	items.writeRow(toAny(lineItemHeaders)...)

	for _, in := range invoices {
		rec := in.Record
		if rec == nil {
			rec = &extraction.Record{}
		}
		inv.writeRow(
			in.ID,
			in.Filename,
			rec.InvoiceNumber,
			dateCell(rec.InvoiceDate),
			dateCell(rec.DueDate),
			vendorName(rec),
			vendorTaxID(rec),
			customerName(rec),
			string(rec.Currency),
			amountCell(rec.Subtotal),
			amountCell(rec.TaxAmount),
			amountCell(rec.ShippingAmount),
			amountCell(rec.TotalAmount),
			string(rec.Status),
			rec.Confidence,
			in.OCRProvider,
			in.CreatedAt.Format("2006-01-02 15:04"),
		)
		for _, p := range rec.Products {
			var qty any = ""
			if p.Quantity != nil {
				qty = *p.Quantity
			}
			items.writeRow(
				in.ID,
				rec.InvoiceNumber,
				p.ProductName,
				p.ModelNumber,
				p.Description,
				qty,
				amountCell(p.UnitPrice),
				amountCell(p.TotalPrice),
			)
		}
	}
	if inv.err != nil {
		return nil, inv.err
	}
	if items.err != nil {
		return nil, items.err
	}

	_ = f.SetColWidth(invoicesSheet, "A", "B", 38)
	_ = f.SetColWidth(invoicesSheet, "C", "E", 16)
	_ = f.SetColWidth(invoicesSheet, "F", "H", 28)
	_ = f.SetColWidth(invoicesSheet, "J", "M", 14)
	_ = f.SetColWidth(lineItemsSheet, "A", "A", 38)
	_ = f.SetColWidth(lineItemsSheet, "C", "E", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func dateCell(d *extraction.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// amountCell writes amounts as numbers so the sheet can sum them
func amountCell(d decimal.NullDecimal) any {
	if !d.Valid {
		return ""
	}
	f, _ := d.Decimal.Float64()
	return f
}

func vendorName(rec *extraction.Record) string {
	if rec.Vendor == nil {
		return ""
	}
	return rec.Vendor.Name
}

func vendorTaxID(rec *extraction.Record) string {
	if rec.Vendor == nil {
		return ""
	}
	return rec.Vendor.TaxID
}

func customerName(rec *extraction.Record) string {
	if rec.Customer == nil {
		return ""
	}
	return rec.Customer.Name
}
