package parser

import (
	"context"

	"github.com/prad18/fork/internal/entity"
)

// InvoiceParser turns OCR text into a structured invoice. Implementations
// must degrade rather than fail: malformed lines are skipped, and an empty
// document yields zero items with zero confidence, not an error.
type InvoiceParser interface {
	Parse(ctx context.Context, text string, filenameHint string) (entity.ParsedInvoice, error)
}
