package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// ErrUnsupportedContent is returned by a scanner that cannot read the given
// content type. A Chain moves on to the next scanner.
var ErrUnsupportedContent = errors.New("unsupported content type")

// OCRResult is the text one provider read from a document
type OCRResult struct {
	Text       string
	Confidence float64
	Provider   string
}

// Scanner defines the interface for turning a document into text
type Scanner interface {
	// ScanText reads all text from an image, PDF or plain text document
	ScanText(ctx context.Context, data []byte, contentType string) (*OCRResult, error)
	// Name identifies the provider in logs and stored invoices
	Name() string
	// Close closes the scanner and releases resources
	Close() error
}

// Chain tries scanners in order and returns the first result carrying at
// least minChars non-space characters.
type Chain struct {
	scanners []Scanner
	minChars int
	logger   *slog.Logger
}

// NewChain creates a Chain
func NewChain(logger *slog.Logger, minChars int, scanners ...Scanner) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{scanners: scanners, minChars: minChars, logger: logger}
}

// ScanText returns the first sufficient result. When every scanner ran but
// none produced enough text, the longest result is returned without error so
// the caller can decide what to do with it.
func (c *Chain) ScanText(ctx context.Context, data []byte, contentType string) (*OCRResult, error) {
	var (
		best *OCRResult
		errs []error
	)
	for _, s := range c.scanners {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.ScanText(ctx, data, contentType)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedContent) {
				c.logger.Warn("scanner failed", "provider", s.Name(), "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if CountTextChars(res.Text) >= c.minChars {
			return res, nil
		}
		c.logger.Info("scanner returned too little text", "provider", s.Name(), "chars", CountTextChars(res.Text))
		if best == nil || CountTextChars(res.Text) > CountTextChars(best.Text) {
			best = res
		}
	}
	if best != nil {
		return best, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no scanners configured")
	}
	return nil, fmt.Errorf("all scanners failed: %w", errors.Join(errs...))
}

// Name lists the chained providers
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.scanners))
	for _, s := range c.scanners {
		names = append(names, s.Name())
	}
	return strings.Join(names, ",")
}

// Close closes every scanner in the chain
func (c *Chain) Close() error {
	var errs []error
	for _, s := range c.scanners {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CountTextChars counts the non-space characters in s
func CountTextChars(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
