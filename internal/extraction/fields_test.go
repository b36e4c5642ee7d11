package extraction

import (
	"regexp"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Cascade", func() {
	var cascade Cascade

	BeforeEach(func() {
		cascade = Cascade{
			{Name: "labeled", Pattern: regexp.MustCompile(`Ref:[ \t]*(\S+)`), Accept: rejectWords("none")},
			{Name: "fallback", Pattern: regexp.MustCompile(`#(\d+)`)},
		}
	})

	It("prefers the earlier rule", func() {
		m := cascade.Find("#12 Ref: ABC")
		Expect(m).To(Equal(Match{Value: "ABC", Rule: "labeled", Found: true}))
	})

	It("tries later matches of a rule before moving on", func() {
		m := cascade.Find("Ref: NONE Ref: XYZ #4")
		Expect(m.Value).To(Equal("XYZ"))
	})

	It("falls through when every candidate is rejected", func() {
		m := cascade.Find("Ref: none #4")
		Expect(m).To(Equal(Match{Value: "4", Rule: "fallback", Found: true}))
	})

	It("reports nothing found", func() {
		Expect(cascade.Find("nothing here").Found).To(BeFalse())
	})
})

var _ = Describe("ParseDate", func() {
	DescribeTable("valid dates",
		func(raw string, dayFirst bool, expected string) {
			r := ParseDate(raw, dayFirst)
			Expect(r.State).To(Equal(Parsed))
			Expect(r.Value.String()).To(Equal(expected))
			Expect(r.Raw).To(Equal(raw))
		},
		Entry("iso", "2025-03-04", true, "2025-03-04"),
		Entry("day first", "01/02/2025", true, "2025-02-01"),
		Entry("month first", "01/02/2025", false, "2025-01-02"),
		Entry("impossible day-first reading flips", "01/15/2025", true, "2025-01-15"),
		Entry("impossible month-first reading flips", "15/01/2025", false, "2025-01-15"),
		Entry("dotted two digit year", "14.08.23", true, "2023-08-14"),
		Entry("day month name", "15 Jan 2025", true, "2025-01-15"),
		Entry("hyphenated month name", "5-Sept-2024", true, "2024-09-05"),
		Entry("month name first", "January 15, 2025", true, "2025-01-15"),
		Entry("ordinal", "3rd March 2025", true, "2025-03-03"),
	)

	DescribeTable("unusable dates",
		func(raw string) {
			Expect(ParseDate(raw, true).State).To(Equal(Invalid))
		},
		Entry("no such month", "31/13/2025"),
		Entry("overflowing day", "31/02/2025"),
		Entry("unknown month name", "15 Foo 2025"),
		Entry("not a date", "tomorrow"),
		Entry("three digit year", "15/01/202"),
	)

	It("finds no date token with a three digit year", func() {
		Expect(InvoiceDate("dated 15/01/202", true).State).To(Equal(Missing))
	})

	It("treats blank input as missing", func() {
		Expect(ParseDate("  ", true).State).To(Equal(Missing))
	})

	It("returns midnight UTC", func() {
		r := ParseDate("2025-01-15", true)
		Expect(r.Value.Location()).To(Equal(time.UTC))
		Expect(r.Value.Hour()).To(BeZero())
	})
})

var _ = Describe("InvoiceDate", func() {
	It("prefers a labeled invoice date over an earlier bare date", func() {
		text := "Printed 01/01/2024\nInvoice Date: 10/02/2024"
		Expect(InvoiceDate(text, true).Value.String()).To(Equal("2024-02-10"))
	})

	It("falls back to any date in the text", func() {
		Expect(InvoiceDate("shipped on 2024-06-30", true).Value.String()).To(Equal("2024-06-30"))
	})

	It("does not report the due date as the issue date", func() {
		r := InvoiceDate("Due Date: 2024-07-30", true)
		Expect(r.State).To(Equal(Missing))
	})

	It("moves past the due date to a later bare date", func() {
		r := InvoiceDate("Due Date: 2024-07-30\nshipped 2024-06-30", true)
		Expect(r.State).To(Equal(Parsed))
		Expect(r.Value.String()).To(Equal("2024-06-30"))
	})
})

var _ = Describe("ParseAmount", func() {
	DescribeTable("separators",
		func(raw, expected string) {
			r := ParseAmount(raw)
			Expect(r.Ok()).To(BeTrue())
			Expect(r.Value.Equal(decimal.RequireFromString(expected))).To(BeTrue(), "got %s", r.Value)
		},
		Entry("plain", "660.00", "660"),
		Entry("us thousands", "1,234.56", "1234.56"),
		Entry("european", "1.234,56", "1234.56"),
		Entry("decimal comma", "12,50", "12.5"),
		Entry("comma thousands only", "1,234", "1234"),
		Entry("dotted thousands", "1.234.567", "1234567"),
		Entry("indian grouping", "1,23,456.78", "123456.78"),
	)

	It("keeps exact decimal values", func() {
		sum := ParseAmount("0.10").Value.Add(ParseAmount("0.20").Value)
		Expect(sum.Equal(decimal.RequireFromString("0.30"))).To(BeTrue())
	})

	It("rejects garbage", func() {
		Expect(ParseAmount("1.2.3,4,5").State).To(Equal(Invalid))
	})

	It("treats blank input as missing", func() {
		Expect(ParseAmount("").State).To(Equal(Missing))
	})
})

var _ = Describe("ResolveAmounts", func() {
	It("reads Grand Total ahead of a bare Total line", func() {
		a := ResolveAmounts("Total: 90.00\nGrand Total: 99.00", INR)
		Expect(a.Total.Value.StringFixed(2)).To(Equal("99.00"))
	})

	It("does not read Sub Total as the total", func() {
		a := ResolveAmounts("Sub Total $600.00", USD)
		Expect(a.Total.State).To(Equal(Missing))
		Expect(a.Subtotal.Value.StringFixed(2)).To(Equal("600.00"))
	})

	It("skips a tax rate to reach the tax amount", func() {
		a := ResolveAmounts("IGST @ 18% 180.00", INR)
		Expect(a.Tax.Value.StringFixed(2)).To(Equal("180.00"))
	})

	It("reads shipping charges", func() {
		a := ResolveAmounts("Shipping & Handling: 15.50", USD)
		Expect(a.Shipping.Value.StringFixed(2)).To(Equal("15.50"))
	})
})

var _ = Describe("DetectCurrency", func() {
	DescribeTable("markers",
		func(text string, expected Currency) {
			Expect(DetectCurrency(text, INR)).To(Equal(expected))
		},
		Entry("dollar sign", "Total $5", USD),
		Entry("euro sign", "Total €5", EUR),
		Entry("pound code", "Total GBP 5", GBP),
		Entry("yen sign", "Total ¥500", JPY),
		Entry("rupee abbreviation", "Total Rs. 5", INR),
		Entry("rupee wins over dollar", "Rs 5 or $1", INR),
		Entry("no marker", "Total 5", INR),
	)

	It("does not read rupees out of ordinary words", func() {
		Expect(DetectCurrency("Hours worked $40", EUR)).To(Equal(USD))
	})
})

var _ = Describe("fields", func() {
	It("finds a labeled phone number", func() {
		Expect(Phone("Tel: 0821-245-6789")).To(Equal("0821-245-6789"))
	})

	It("falls back to a bare digit run", func() {
		Expect(Phone("call 9876543210 today")).To(Equal("9876543210"))
	})

	It("finds an email", func() {
		Expect(Email("write to a.b@example.co.in please")).To(Equal("a.b@example.co.in"))
	})

	It("finds a GSTIN", func() {
		Expect(TaxID("GSTIN: 27AAPFU0939F1ZV")).To(Equal("27AAPFU0939F1ZV"))
	})

	It("reads a bare alphanumeric invoice code", func() {
		Expect(InvoiceNumber("AB123456\nsomething").Value).To(Equal("AB123456"))
	})
})

var _ = Describe("Normalize", func() {
	It("keeps line structure while collapsing spacing", func() {
		in := "  A\t\tB   C  \r\nD\r\n\r\n\r\n\r\nE  "
		Expect(Normalize(in)).To(Equal("A  B  C\nD\n\nE"))
	})

	It("drops invalid utf-8", func() {
		Expect(Normalize("ok\xff")).To(Equal("ok"))
	})

	It("does not rewrite letters inside numbers", func() {
		Expect(Normalize("INV-2O25")).To(Equal("INV-2O25"))
	})
})

var _ = Describe("Classify", func() {
	var rec *Record

	BeforeEach(func() {
		rec = &Record{}
	})

	It("is failed without number or total", func() {
		Expect(Classify(rec)).To(Equal(StatusFailed))
	})

	It("is partial with one of them", func() {
		rec.InvoiceNumber = "X1"
		Expect(Classify(rec)).To(Equal(StatusPartial))
	})

	It("is success with both", func() {
		rec.InvoiceNumber = "X1"
		rec.TotalAmount = nullDecimal(decimal.NewFromInt(1))
		Expect(Classify(rec)).To(Equal(StatusSuccess))
	})
})

var _ = Describe("ArithmeticConsistent", func() {
	tolerance := decimal.RequireFromString("0.01")

	It("holds within tolerance", func() {
		rec := &Record{
			Subtotal:    nullDecimal(decimal.RequireFromString("600.00")),
			TaxAmount:   nullDecimal(decimal.RequireFromString("60.00")),
			TotalAmount: nullDecimal(decimal.RequireFromString("660.01")),
		}
		Expect(rec.ArithmeticConsistent(tolerance)).To(BeTrue())
	})

	It("fails outside tolerance", func() {
		rec := &Record{
			Subtotal:    nullDecimal(decimal.RequireFromString("600.00")),
			TaxAmount:   nullDecimal(decimal.RequireFromString("60.00")),
			TotalAmount: nullDecimal(decimal.RequireFromString("700.00")),
		}
		Expect(rec.ArithmeticConsistent(tolerance)).To(BeFalse())
	})

	It("holds when an amount is missing", func() {
		rec := &Record{TotalAmount: nullDecimal(decimal.NewFromInt(5))}
		Expect(rec.ArithmeticConsistent(tolerance)).To(BeTrue())
	})
})
