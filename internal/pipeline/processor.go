package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/entity"
	"github.com/prad18/fork/internal/extract"
	"github.com/prad18/fork/internal/parser"
)

// Store is the slice of the repository the pipeline needs.
type Store interface {
	FilePath(ctx context.Context, id uuid.UUID) (string, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.InvoiceStatus, errMsg string) error
	SaveResults(ctx context.Context, id uuid.UUID, parsed entity.ParsedInvoice, ocrConfidence float64, records []entity.EmissionRecord, summary entity.EmissionsSummary) error
}

// Processor runs the full chain for one stored invoice: extract text, parse
// line items, map emissions, persist. Partial results always beat no
// results: a sparse parse completes with what it found; only an unreadable
// document fails the invoice.
type Processor struct {
	store     Store
	extractor extract.TextExtractor
	parser    parser.InvoiceParser
	calc      *carbon.Calculator
	logger    *slog.Logger
}

func NewProcessor(store Store, extractor extract.TextExtractor, invParser parser.InvoiceParser, calc *carbon.Calculator, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:     store,
		extractor: extractor,
		parser:    invParser,
		calc:      calc,
		logger:    logger,
	}
}

// Process runs the pipeline for an invoice already registered in the store.
// Reprocessing goes through the same path; SaveResults replaces everything
// derived.
func (p *Processor) Process(ctx context.Context, invoiceID uuid.UUID) error {
	path, err := p.store.FilePath(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("locate invoice file: %w", err)
	}
	if err := p.store.SetStatus(ctx, invoiceID, constants.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "invoice_id", invoiceID, "error", err)
		p.fail(ctx, invoiceID, fmt.Sprintf("text extraction: %v", err))
		return err
	}
	p.logger.Info("pipeline.extract.ok",
		"invoice_id", invoiceID,
		"method", text.Method,
		"pages", text.Pages,
		"confidence", text.Confidence,
	)

	parsed, err := p.parser.Parse(ctx, text.Text, path)
	if err != nil {
		// both strategies down is the only way to get here
		p.logger.Error("pipeline.parse.failed", "invoice_id", invoiceID, "error", err)
		p.fail(ctx, invoiceID, fmt.Sprintf("parse: %v", err))
		return err
	}
	p.logger.Info("pipeline.parse.ok",
		"invoice_id", invoiceID,
		"method", parsed.ParseMethod,
		"items", len(parsed.Items),
		"discarded", parsed.DiscardedCount,
		"confidence", parsed.ParseConfidence,
	)

	records, summary := p.calc.Compute(parsed.Items)
	p.logger.Info("pipeline.carbon.ok",
		"invoice_id", invoiceID,
		"total_co2e_kg", summary.TotalCO2eKg,
		"unmapped", summary.UnmappedCount,
		"score", summary.SustainabilityScore,
	)

	if err := p.store.SaveResults(ctx, invoiceID, parsed, text.Confidence, records, summary); err != nil {
		p.logger.Error("pipeline.persist.failed", "invoice_id", invoiceID, "error", err)
		p.fail(ctx, invoiceID, fmt.Sprintf("persist results: %v", err))
		return err
	}
	return nil
}

func (p *Processor) fail(ctx context.Context, invoiceID uuid.UUID, msg string) {
	if err := p.store.SetStatus(ctx, invoiceID, constants.StatusFailed, msg); err != nil {
		p.logger.Error("pipeline.fail_status.failed", "invoice_id", invoiceID, "error", err)
	}
}
