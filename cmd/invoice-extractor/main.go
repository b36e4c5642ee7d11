package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-extractor/internal/extraction"
	"github.com/zombor/invoice-extractor/internal/invoice"
	"github.com/zombor/invoice-extractor/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-extractor")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "invoices.db", "Database file path")
		storagePath    = fs.StringLong("storage", "./invoices", "Storage directory path")
		scannerChain   = fs.StringLong("scanners", "text-layer,gemini", "Comma separated OCR providers tried in order: text-layer, gemini, ollama")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "qwen2.5vl:7b", "Ollama vision model name")
		currency       = fs.StringLong("currency", string(extraction.INR), "Currency used when the text carries no marker")
		monthFirst     = fs.BoolLong("month-first", "Read ambiguous numeric dates as MM/DD/YYYY")
		maxInputBytes  = fs.IntLong("max-input-bytes", extraction.DefaultMaxInputBytes, "Longest text handed to the extraction engine")
		warnOnMismatch = fs.BoolLong("warn-on-mismatch", "Warn when subtotal plus tax differs from the total")
		minTextChars   = fs.IntLong("min-text-chars", invoice.DefaultMinTextChars, "Fewest non-space OCR characters worth extracting from")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	defaultCurrency, err := extraction.ParseCurrency(strings.ToUpper(*currency))
	if err != nil {
		slog.Error("Invalid default currency", "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the OCR provider chain
	scanners, err := buildScanners(*scannerChain, providerConfig{
		geminiKey:   *geminiKey,
		geminiModel: *geminiModel,
		ollamaURL:   *ollamaURL,
		ollamaModel: *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize scanners", "error", err)
		os.Exit(1)
	}
	scanner := scanning.NewChain(logger, *minTextChars, scanners...)
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := invoice.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	extractor := extraction.New(extraction.Options{
		DefaultCurrency:   defaultCurrency,
		DayFirst:          !*monthFirst,
		MaxInputBytes:     *maxInputBytes,
		WarnOnMismatch:    *warnOnMismatch,
		MismatchTolerance: decimal.NewFromFloat(0.01),
	}, logger)

	// Initialize service
	invoiceService := invoice.NewService(db, scanner, store, extractor)
	invoiceService.SetMinTextChars(*minTextChars)

	// Initialize server
	basicAuth := invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := invoice.NewServer(invoiceService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started",
		"address", fmt.Sprintf("http://localhost%s", addr),
		"scanners", scanner.Name(),
		"currency", defaultCurrency,
	)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

type providerConfig struct {
	geminiKey   string
	geminiModel string
	ollamaURL   string
	ollamaModel string
}

// buildScanners creates the named providers in order
func buildScanners(chain string, cfg providerConfig) ([]scanning.Scanner, error) {
	var scanners []scanning.Scanner
	closeAll := func() {
		for _, s := range scanners {
			s.Close()
		}
	}

	for _, name := range strings.Split(chain, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
			continue
		case "text-layer":
			scanners = append(scanners, scanning.NewTextLayer())
		case "gemini":
			// Get Gemini API key from flag or environment
			apiKey := cfg.geminiKey
			if apiKey == "" {
				apiKey = os.Getenv("GEMINI_API_KEY")
			}
			if apiKey == "" {
				closeAll()
				return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
			}
			slog.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
			g, err := scanning.NewGemini(apiKey, cfg.geminiModel)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("initializing gemini: %w", err)
			}
			scanners = append(scanners, g)
		case "ollama":
			slog.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
			o, err := scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("initializing ollama: %w", err)
			}
			scanners = append(scanners, o)
		default:
			closeAll()
			return nil, fmt.Errorf("unknown scanner %q: valid are text-layer, gemini, ollama", name)
		}
	}

	if len(scanners) == 0 {
		return nil, fmt.Errorf("no scanners configured")
	}
	return scanners, nil
}
