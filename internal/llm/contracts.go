package llm

import "context"

// ItemFields is one invoice line item as the model reports it. Money stays a
// decimal string until the parser validates it.
type ItemFields struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit,omitempty"`
	UnitPrice string  `json:"unit_price,omitempty"` // decimal
	Category  string  `json:"category,omitempty"`   // must match AllowedCategories if provided
}

// InvoiceFields is the normalized shape we want from the model.
type InvoiceFields struct {
	VendorName      string       `json:"vendor_name"`
	InvoiceDate     string       `json:"invoice_date,omitempty"` // YYYY-MM-DD
	TotalAmount     string       `json:"total_amount,omitempty"` // decimal
	Items           []ItemFields `json:"items"`
	ModelConfidence float64      `json:"confidence,omitempty"` // optional (0..1)

	// DiscardedItems counts line items the client had to drop during lenient
	// repair; it never appears on the wire.
	DiscardedItems int `json:"-"`
}

type ExtractRequest struct {
	OCRText           string
	FilenameHint      string
	AllowedCategories []string
	AllowedUnits      []string

	OCRConfidence float64
}

// InvoiceExtractor is the interface the parsing pipeline depends on.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, req ExtractRequest) (InvoiceFields, []byte /*rawJSON*/, error)
}
