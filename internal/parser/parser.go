package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/entity"
)

// LayeredParser tries the model strategy first and falls back to pattern
// matching whenever the model errors, times out, or returns nothing usable.
// A model outage degrades parse quality; it never fails the operation.
type LayeredParser struct {
	model    InvoiceParser
	fallback InvoiceParser
	timeout  time.Duration
	logger   *slog.Logger
}

// NewLayeredParser builds the dispatch. model may be nil, in which case every
// parse goes straight to the fallback.
func NewLayeredParser(model, fallback InvoiceParser, timeout time.Duration, logger *slog.Logger) *LayeredParser {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LayeredParser{model: model, fallback: fallback, timeout: timeout, logger: logger}
}

func (p *LayeredParser) Parse(ctx context.Context, text, filenameHint string) (entity.ParsedInvoice, error) {
	if p.model != nil {
		mctx, cancel := context.WithTimeout(ctx, p.timeout)
		inv, err := p.model.Parse(mctx, text, filenameHint)
		cancel()
		switch {
		case err != nil:
			p.logger.Warn("parse.model.unavailable",
				"filename", filenameHint, "error", err)
		case len(inv.Items) == 0:
			p.logger.Warn("parse.model.empty",
				"filename", filenameHint)
		default:
			return inv, nil
		}
	}
	inv, err := p.fallback.Parse(ctx, text, filenameHint)
	if err != nil {
		return inv, fmt.Errorf("%w: %w", common.ErrParseFailed, err)
	}
	return inv, nil
}
