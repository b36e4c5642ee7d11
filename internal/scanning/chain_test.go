package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockScanner struct {
	name     string
	result   *OCRResult
	err      error
	calls    int
	closeErr error
	closed   bool
}

func (m *mockScanner) ScanText(_ context.Context, _ []byte, _ string) (*OCRResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &OCRResult{Provider: m.name}, nil
	}
	return m.result, nil
}

func (m *mockScanner) Name() string { return m.name }

func (m *mockScanner) Close() error {
	m.closed = true
	return m.closeErr
}

var _ = Describe("Chain", func() {
	var (
		first  *mockScanner
		second *mockScanner
		chain  *Chain
		ctx    context.Context
		result *OCRResult
		err    error
	)

	BeforeEach(func() {
		ctx = context.Background()
		first = &mockScanner{name: "first"}
		second = &mockScanner{name: "second"}
	})

	JustBeforeEach(func() {
		chain = NewChain(nil, 10, first, second)
		result, err = chain.ScanText(ctx, []byte("data"), "image/png")
	})

	When("the first scanner returns enough text", func() {
		BeforeEach(func() {
			first.result = &OCRResult{Text: "Invoice No: INV-1", Provider: "first"}
		})

		It("does not call the next scanner", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Provider).To(Equal("first"))
			Expect(second.calls).To(BeZero())
		})
	})

	When("the first scanner fails", func() {
		BeforeEach(func() {
			first.err = errors.New("quota exceeded")
			second.result = &OCRResult{Text: "Invoice No: INV-1", Provider: "second"}
		})

		It("falls back to the next one", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Provider).To(Equal("second"))
		})
	})

	When("the first scanner cannot read the content type", func() {
		BeforeEach(func() {
			first.err = ErrUnsupportedContent
			second.result = &OCRResult{Text: "Invoice No: INV-1", Provider: "second"}
		})

		It("falls back to the next one", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Provider).To(Equal("second"))
		})
	})

	When("the first scanner returns too little text", func() {
		BeforeEach(func() {
			first.result = &OCRResult{Text: "abc", Provider: "first"}
			second.result = &OCRResult{Text: "Invoice No: INV-1", Provider: "second"}
		})

		It("tries the next one", func() {
			Expect(result.Provider).To(Equal("second"))
		})
	})

	When("no scanner returns enough text", func() {
		BeforeEach(func() {
			first.result = &OCRResult{Text: "abc", Provider: "first"}
			second.err = errors.New("offline")
		})

		It("returns the longest short result", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Provider).To(Equal("first"))
		})
	})

	When("every scanner fails", func() {
		BeforeEach(func() {
			first.err = errors.New("quota exceeded")
			second.err = errors.New("offline")
		})

		It("returns both errors", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("first: quota exceeded"))
			Expect(err.Error()).To(ContainSubstring("second: offline"))
			Expect(result).To(BeNil())
		})
	})

	When("the context is cancelled", func() {
		BeforeEach(func() {
			c, cancel := context.WithCancel(context.Background())
			cancel()
			ctx = c
		})

		It("stops before scanning", func() {
			Expect(err).To(MatchError(context.Canceled))
			Expect(first.calls).To(BeZero())
		})
	})

	It("names and closes every scanner", func() {
		second.closeErr = errors.New("stuck")
		Expect(chain.Name()).To(Equal("first,second"))
		Expect(chain.Close()).To(MatchError(ContainSubstring("closing second: stuck")))
		Expect(first.closed).To(BeTrue())
	})
})

var _ = Describe("TextLayer", func() {
	var scanner *TextLayer

	BeforeEach(func() {
		scanner = NewTextLayer()
	})

	It("returns plain text uploads as they are", func() {
		res, err := scanner.ScanText(context.Background(), []byte("Invoice No: 7\r\nTotal: 1.00"), "text/plain; charset=utf-8")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal("Invoice No: 7\nTotal: 1.00"))
		Expect(res.Provider).To(Equal("text-layer"))
	})

	It("rejects images", func() {
		_, err := scanner.ScanText(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
		Expect(err).To(MatchError(ErrUnsupportedContent))
	})

	It("rejects invalid text", func() {
		_, err := scanner.ScanText(context.Background(), []byte{0xff, 0xfe}, "text/plain")
		Expect(err).To(HaveOccurred())
	})
})
