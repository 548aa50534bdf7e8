package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/export"
	"github.com/prad18/fork/internal/extract"
	"github.com/prad18/fork/internal/llm/openai"
	"github.com/prad18/fork/internal/ocr"
	"github.com/prad18/fork/internal/parser"
)

// invoice-batch processes every supported document in a directory without a
// database: extract, parse, map emissions, then write one XLSX summary.
func main() {
	var (
		dir = flag.String("dir", "", "directory of invoice documents (required)")
		out = flag.String("out", "", "output XLSX path (default: <dir parent>/emissions.xlsx)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: --dir is required")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "emissions.xlsx")
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	table, err := carbon.LoadFactors(cfg.Carbon.FactorsPath)
	if err != nil {
		logger.Error("load emission factors", "error", err)
		os.Exit(1)
	}
	calc := carbon.NewCalculator(table, logger)

	extractor := extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		TessdataDir:      cfg.OCR.TessdataDir,
		ArtifactCacheDir: cfg.OCR.ArtifactCacheDir,
		PreprocessImages: true,
	}, logger))

	var model parser.InvoiceParser
	if cfg.LLM.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "" {
		client := openai.NewClient(openai.Config{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			Timeout:      cfg.LLM.Timeout,
			LenientItems: true,
		}, logger)
		model = parser.NewModelParser(client, logger)
	} else {
		logger.Warn("no model API key configured, pattern fallback only")
	}
	invParser := parser.NewLayeredParser(model, parser.NewPatternParser(logger), cfg.LLM.Timeout, logger)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var results []export.DocumentResult
	var failed int

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(entry.Name()))
		if constants.MapExtToFormat(ext) == "" {
			continue
		}
		path := filepath.Join(*dir, entry.Name())
		start := time.Now()

		text, err := extractor.Extract(ctx, path)
		if err != nil {
			logger.Error("batch.extract_failed", "file", entry.Name(), "error", err)
			failed++
			continue
		}
		parsed, err := invParser.Parse(ctx, text.Text, path)
		if err != nil {
			logger.Error("batch.parse_failed", "file", entry.Name(), "error", err)
			failed++
			continue
		}
		_, summary := calc.Compute(parsed.Items)

		logger.Info("batch.document_done",
			"file", entry.Name(),
			"items", len(parsed.Items),
			"total_co2e_kg", summary.TotalCO2eKg,
			"score", summary.SustainabilityScore,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		results = append(results, export.DocumentResult{
			Filename: entry.Name(),
			Parsed:   parsed,
			Summary:  summary,
		})
	}

	if len(results) == 0 {
		logger.Error("no documents processed", "dir", *dir, "failed", failed)
		os.Exit(1)
	}

	xlsx, err := export.BatchXLSX(results)
	if err != nil {
		logger.Error("render workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("write workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch.done", "processed", len(results), "failed", failed, "out", *out)
}
