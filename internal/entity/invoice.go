package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/prad18/fork/constants"
)

// LineItem is a single structured line extracted from an invoice document.
// Quantity is always positive; items that fail quantity validation are dropped
// at parse time and only counted. Unmapped marks items whose unit/category
// combination has no emission basis — they are retained for display but
// contribute zero emissions.
type LineItem struct {
	RawName        string             `json:"raw_name"`
	NormalizedName string             `json:"normalized_name"`
	Quantity       float64            `json:"quantity"`
	Unit           constants.Unit     `json:"unit"`
	UnitPrice      *float64           `json:"unit_price,omitempty"`
	Category       constants.Category `json:"category"`
	Unmapped       bool               `json:"unmapped,omitempty"`
}

// ParsedInvoice is the immutable result of one parse pass over extracted text.
// Reprocessing produces a fresh ParsedInvoice; nothing mutates one in place.
type ParsedInvoice struct {
	VendorName      string                `json:"vendor_name,omitempty"`
	InvoiceDate     *time.Time            `json:"invoice_date,omitempty"`
	TotalAmount     *float64              `json:"total_amount,omitempty"`
	Items           []LineItem            `json:"items"`
	ParseMethod     constants.ParseMethod `json:"parse_method"`
	ParseConfidence float64               `json:"parse_confidence"`
	DiscardedCount  int                   `json:"discarded_count,omitempty"`
}

// Invoice is the stored document record plus its derived results.
type Invoice struct {
	ID              uuid.UUID               `json:"id"`
	Filename        string                  `json:"filename"`
	Status          constants.InvoiceStatus `json:"status"`
	UploadedAt      time.Time               `json:"uploaded_at"`
	VendorName      string                  `json:"vendor_name,omitempty"`
	InvoiceDate     *time.Time              `json:"invoice_date,omitempty"`
	TotalAmount     *float64                `json:"total_amount,omitempty"`
	ParseMethod     constants.ParseMethod   `json:"parse_method,omitempty"`
	ParseConfidence float64                 `json:"parse_confidence"`
	OCRConfidence   float64                 `json:"ocr_confidence"`
	ItemCount       int                     `json:"item_count"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
}
