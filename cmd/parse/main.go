package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/parser"
	"github.com/prad18/fork/internal/recommend"
)

// parse runs the pattern parser and emission mapping over already-extracted
// text. Reads from a file or stdin, prints JSON. Handy for tuning patterns
// against a problem document without OCR in the loop.
func main() {
	var (
		file = flag.String("file", "", "text file to parse (default: stdin)")
		hint = flag.String("hint", "", "filename hint forwarded to the parser")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	var raw []byte
	var err error
	if *file != "" {
		raw, err = os.ReadFile(*file)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read input: %v\n", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	table, err := carbon.LoadFactors(cfg.Carbon.FactorsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load emission factors: %v\n", err)
		os.Exit(1)
	}
	calc := carbon.NewCalculator(table, logger)
	engine := recommend.NewEngine(table, cfg.Carbon.MaterialityThreshold, logger)

	parsed, err := parser.NewPatternParser(logger).Parse(context.Background(), string(raw), *hint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: parse: %v\n", err)
		os.Exit(1)
	}
	records, summary := calc.Compute(parsed.Items)

	out := map[string]any{
		"parsed":          parsed,
		"emissions":       records,
		"summary":         summary,
		"recommendations": engine.Recommend(records, summary),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode output: %v\n", err)
		os.Exit(1)
	}
}
