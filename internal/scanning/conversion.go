package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// transcriptionPrompt is shared by the vision model providers. The models
// only read; field extraction happens in the rule engine.
const transcriptionPrompt = `You are an OCR engine. Transcribe every piece of text visible in this invoice image exactly as printed.

Rules:
- Keep the original line breaks. Each printed line must be its own line.
- Keep table rows on one line with the columns separated by two spaces.
- Copy numbers, currency symbols, dates and codes exactly. Do not reformat or correct them.
- Do not summarize, translate, explain or add any text that is not printed on the document.
- Do not use markdown or code blocks.
- If there is no readable text, answer with ` + noTextMarker

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeText = "text/plain"
)

// normalizeMIME lowercases a content type and strips parameters such as
// charset.
func normalizeMIME(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// renderPDFPage renders one page of a PDF as PNG
func renderPDFPage(doc *fitz.Document, page int) ([]byte, error) {
	img, err := doc.Image(page)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page %d: %w", page, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfToImage renders the first page of a PDF. Invoices that span pages keep
// their header, parties and totals on page one often enough.
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()
	return renderPDFPage(doc, 0)
}

// pdfText returns the embedded text layer of every page, pages separated by
// a blank line.
func pdfText(pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("reading text of page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return strings.Join(pages, "\n\n"), nil
}

// imageToPNG re-encodes JPEG, GIF and HEIC images as PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// iPhone scans arrive as HEIC, which the standard library cannot decode
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported image format, expected JPEG, PNG, GIF, HEIC or PDF: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareImage turns any supported upload into PNG bytes for a vision model.
// Plain text is rejected since there is nothing to look at.
func prepareImage(data []byte, contentType string) ([]byte, error) {
	mimeType := normalizeMIME(contentType)
	switch {
	case mimeType == "":
		mimeType = "image/jpeg"
	case mimeType == mimeText:
		return nil, ErrUnsupportedContent
	}

	switch {
	case mimeType == mimePDF:
		out, err := pdfToImage(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return out, nil
	case mimeType != mimePNG || isHEICFormat(data):
		out, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return out, nil
	}
	return data, nil
}
