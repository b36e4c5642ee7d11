package invoice

import (
	"errors"
	"time"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

var (
	// ErrNotFound is returned when no invoice has the requested ID
	ErrNotFound = errors.New("invoice not found")
	// ErrInsufficientText is returned when OCR yields too little text to
	// extract from
	ErrInsufficientText = errors.New("insufficient text extracted from document")
	// ErrScanFailed is returned when no OCR provider could read the document
	ErrScanFailed = errors.New("reading document text")
)

// Invoice is a processed upload together with its extracted record
type Invoice struct {
	ID            string             `json:"id"`
	Filename      string             `json:"filename"`
	ContentType   string             `json:"content_type"`
	OCRProvider   string             `json:"ocr_provider"`
	OCRConfidence float64            `json:"ocr_confidence"`
	Record        *extraction.Record `json:"record"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Result reports one processing attempt. It is returned for failures too so
// callers can show what happened to each file.
type Result struct {
	Success            bool     `json:"success"`
	Invoice            *Invoice `json:"invoice,omitempty"`
	ErrorMessage       string   `json:"error_message,omitempty"`
	FileName           string   `json:"file_name"`
	ProcessingDuration float64  `json:"processing_duration"` // seconds
}
