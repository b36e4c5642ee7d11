package scanning

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextLayer reads text that is already in the document: plain text uploads
// and the embedded text of digitally generated PDFs. It needs no model and
// is normally first in the chain.
type TextLayer struct{}

// NewTextLayer creates a TextLayer scanner
func NewTextLayer() *TextLayer {
	return &TextLayer{}
}

// ScanText returns the document's own text. Images are unsupported.
func (t *TextLayer) ScanText(ctx context.Context, data []byte, contentType string) (*OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var text string
	switch normalizeMIME(contentType) {
	case mimeText:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("text upload is not valid UTF-8")
		}
		text = string(data)
	case mimePDF:
		var err error
		text, err = pdfText(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedContent
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &OCRResult{
		Text:       text,
		Confidence: HeuristicConfidence(text),
		Provider:   t.Name(),
	}, nil
}

func (t *TextLayer) Name() string { return "text-layer" }

func (t *TextLayer) Close() error { return nil }
