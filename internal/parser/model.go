package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/entity"
	"github.com/prad18/fork/internal/llm"
)

// defaultModelConfidence applies when the model omits its own estimate.
const defaultModelConfidence = 0.85

// ModelParser is the primary strategy: structured extraction through an
// InvoiceExtractor. Invalid items coming back are dropped and counted, never
// silently kept.
type ModelParser struct {
	extractor llm.InvoiceExtractor
	logger    *slog.Logger
}

func NewModelParser(extractor llm.InvoiceExtractor, logger *slog.Logger) *ModelParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelParser{extractor: extractor, logger: logger}
}

func (p *ModelParser) Parse(ctx context.Context, text, filenameHint string) (entity.ParsedInvoice, error) {
	fields, _, err := p.extractor.ExtractInvoice(ctx, llm.ExtractRequest{
		OCRText:           text,
		FilenameHint:      filenameHint,
		AllowedCategories: constants.AsStringSlice(),
	})
	if err != nil {
		return entity.ParsedInvoice{}, fmt.Errorf("%w: %w", common.ErrModelUnavailable, err)
	}
	return fieldsToInvoice(fields, p.logger), nil
}

func fieldsToInvoice(fields llm.InvoiceFields, logger *slog.Logger) entity.ParsedInvoice {
	inv := entity.ParsedInvoice{
		VendorName:     strings.TrimSpace(fields.VendorName),
		ParseMethod:    constants.ParseMethodModel,
		DiscardedCount: fields.DiscardedItems,
	}
	if fields.InvoiceDate != "" {
		if t, err := time.Parse("2006-01-02", fields.InvoiceDate); err == nil {
			inv.InvoiceDate = &t
		}
	}
	if fields.TotalAmount != "" {
		if v, err := strconv.ParseFloat(fields.TotalAmount, 64); err == nil {
			inv.TotalAmount = &v
		}
	}

	for _, f := range fields.Items {
		name := strings.TrimSpace(f.Name)
		if name == "" || f.Quantity <= 0 {
			inv.DiscardedCount++
			logger.Debug("parse.model.item_discarded", "name", f.Name, "quantity", f.Quantity)
			continue
		}
		item := entity.LineItem{
			RawName:        name,
			NormalizedName: constants.NormalizeName(name),
			Quantity:       f.Quantity,
		}
		unit, ok := constants.ParseUnit(f.Unit)
		if !ok {
			unit = constants.UnitCount
		}
		item.Unit = unit
		item.Unmapped = unit.IsCount()

		if f.UnitPrice != "" {
			if v, err := strconv.ParseFloat(f.UnitPrice, 64); err == nil && v >= 0 {
				item.UnitPrice = &v
			}
		}

		// trust the model's category only when it names one we know;
		// otherwise derive it from the name
		if cat, ok := constants.Canonicalize(f.Category); ok {
			item.Category = cat
		} else {
			item.Category = constants.Categorize(item.NormalizedName)
		}
		inv.Items = append(inv.Items, item)
	}

	inv.ParseConfidence = fields.ModelConfidence
	if inv.ParseConfidence <= 0 || inv.ParseConfidence > 1 {
		inv.ParseConfidence = defaultModelConfidence
	}
	if len(inv.Items) == 0 {
		inv.ParseConfidence = 0
	}
	return inv
}
