package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-extractor/internal/extraction"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

// DefaultMinTextChars is the fewest non-space characters worth extracting from
const DefaultMinTextChars = 10

// IDGenerator generates unique IDs for invoices
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles invoice operations
type Service struct {
	db           DB
	scanner      scanning.Scanner
	storage      Storage
	extractor    *extraction.Extractor
	idGenerator  IDGenerator
	timeSource   TimeSource
	minTextChars int
	metrics      *serviceMetrics
}

// NewService creates a new Service with UUID IDs and the wall clock
func NewService(db DB, scanner scanning.Scanner, storage Storage, extractor *extraction.Extractor) *Service {
	return NewServiceWithDeps(db, scanner, storage, extractor, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, extractor *extraction.Extractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:           db,
		scanner:      scanner,
		storage:      storage,
		extractor:    extractor,
		idGenerator:  idGen,
		timeSource:   timeSrc,
		minTextChars: DefaultMinTextChars,
		metrics:      getServiceMetrics(),
	}
}

// SetMinTextChars changes the OCR text gate
func (s *Service) SetMinTextChars(n int) {
	s.minTextChars = n
}

var (
	reUnsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reSpaces         = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters from phone and scanner
// generated names and shortens them
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = reUnsafeFilename.ReplaceAllString(base, "")
	base = strings.TrimSpace(reSpaces.ReplaceAllString(base, " "))
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	return base + reUnsafeFilename.ReplaceAllString(ext, "")
}

// ProcessInvoice stores an uploaded document, reads its text, extracts the
// record and saves the invoice. The returned Result is never nil; err is set
// when nothing was saved.
func (s *Service) ProcessInvoice(ctx context.Context, filename string, data []byte, contentType string) (*Result, error) {
	start := s.timeSource.Now()
	result := &Result{FileName: filename}
	fail := func(reason string, err error) (*Result, error) {
		s.metrics.failures.WithLabelValues(reason).Inc()
		result.ErrorMessage = err.Error()
		result.ProcessingDuration = s.timeSource.Now().Sub(start).Seconds()
		return result, err
	}

	id := s.idGenerator.Generate()
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return fail("storage", fmt.Errorf("saving file: %w", err))
	}

	ocr, err := s.scanner.ScanText(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to read invoice text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.removeFile(savedPath)
		return fail("scan", fmt.Errorf("%w: %w", ErrScanFailed, err))
	}

	s.metrics.ocrResults.WithLabelValues(ocr.Provider).Inc()

	if chars := scanning.CountTextChars(ocr.Text); chars < s.minTextChars {
		slog.Warn("Too little text to extract from",
			"filename", filename,
			"provider", ocr.Provider,
			"chars", chars,
		)
		s.removeFile(savedPath)
		return fail("insufficient_text", fmt.Errorf("%w: %d characters from %s", ErrInsufficientText, chars, ocr.Provider))
	}

	record := s.extract(ocr.Text)

	now := s.timeSource.Now()
	inv := &Invoice{
		ID:            id,
		Filename:      savedPath,
		ContentType:   contentType,
		OCRProvider:   ocr.Provider,
		OCRConfidence: ocr.Confidence,
		Record:        record,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.SaveInvoice(inv); err != nil {
		s.removeFile(savedPath)
		return fail("database", fmt.Errorf("saving invoice to database: %w", err))
	}

	slog.Info("Invoice processed",
		"id", id,
		"filename", filename,
		"provider", ocr.Provider,
		"status", record.Status,
		"confidence", record.Confidence,
	)

	result.Success = true
	result.Invoice = inv
	result.ProcessingDuration = now.Sub(start).Seconds()
	s.metrics.duration.Observe(result.ProcessingDuration)
	return result, nil
}

// ExtractText runs the extraction engine on text that needs no OCR
func (s *Service) ExtractText(text string) (*extraction.Record, error) {
	if chars := scanning.CountTextChars(text); chars < s.minTextChars {
		return nil, fmt.Errorf("%w: %d characters", ErrInsufficientText, chars)
	}
	return s.extract(text), nil
}

// extract runs the engine and counts the outcome
func (s *Service) extract(text string) *extraction.Record {
	record := s.extractor.Extract(text)
	s.metrics.extractions.WithLabelValues(string(record.Status)).Inc()
	return record
}

func (s *Service) removeFile(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "filename", path, "error", err)
	}
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id string) (*Invoice, error) {
	inv, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns all invoices
func (s *Service) ListInvoices() ([]*Invoice, error) {
	invoices, err := s.db.ListInvoices()
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

// DeleteInvoice removes an invoice and its file
func (s *Service) DeleteInvoice(id string) error {
	inv, err := s.db.GetInvoice(id)
	if err != nil {
		return fmt.Errorf("getting invoice for deletion: %w", err)
	}

	// a missing file must not keep the record alive
	s.removeFile(inv.Filename)

	if err := s.db.DeleteInvoice(id); err != nil {
		return fmt.Errorf("deleting invoice from database: %w", err)
	}
	return nil
}

// GetInvoiceFile retrieves the original document for an invoice
func (s *Service) GetInvoiceFile(id string) ([]byte, string, error) {
	inv, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice: %w", err)
	}

	data, err := s.storage.Get(inv.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice file: %w", err)
	}
	return data, inv.ContentType, nil
}

// ExportXLSX builds a workbook of every stored invoice
func (s *Service) ExportXLSX() ([]byte, error) {
	invoices, err := s.ListInvoices()
	if err != nil {
		return nil, err
	}
	out, err := buildWorkbook(invoices)
	if err != nil {
		return nil, fmt.Errorf("exporting invoices: %w", err)
	}
	return out, nil
}

// IsNotFound reports whether err means the invoice does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
