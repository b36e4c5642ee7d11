package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-extractor/internal/extraction"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// extract-invoice reads OCR text from a file argument or stdin and prints
// the extracted record as JSON.
func main() {
	fs := ff.NewFlagSet("extract-invoice")
	var (
		includeRaw     = fs.BoolLong("raw", "Include the raw text in the output")
		currency       = fs.StringLong("currency", string(extraction.INR), "Currency used when the text carries no marker")
		monthFirst     = fs.BoolLong("month-first", "Read ambiguous numeric dates as MM/DD/YYYY")
		maxInputBytes  = fs.IntLong("max-input-bytes", extraction.DefaultMaxInputBytes, "Longest text handed to the extraction engine")
		warnOnMismatch = fs.BoolLong("warn-on-mismatch", "Warn when subtotal plus tax differs from the total")
		verbose        = fs.BoolLong("verbose", "Log extraction details to stderr")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	defaultCurrency, err := extraction.ParseCurrency(strings.ToUpper(*currency))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	text, err := readInput(fs.GetArgs())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	extractor := extraction.New(extraction.Options{
		DefaultCurrency:   defaultCurrency,
		DayFirst:          !*monthFirst,
		MaxInputBytes:     *maxInputBytes,
		WarnOnMismatch:    *warnOnMismatch,
		MismatchTolerance: decimal.NewFromFloat(0.01),
	}, logger)
	record := extractor.Extract(text)

	var out []byte
	if *includeRaw {
		out, err = record.JSONWithRaw()
	} else {
		out, err = json.Marshal(record)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: encoding record: %v\n", err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		fmt.Fprintf(os.Stderr, "error: formatting record: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(pretty.String())
}

// readInput reads the named file, or stdin when no file or "-" is given
func readInput(args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("expected at most one file, got %d", len(args))
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
