package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/entity"
)

// InvoiceRow is the stored invoice document plus its derived results. Derived
// columns (item counts, emissions, score) are projections of the item rows
// and get fully replaced on every reprocess.
type InvoiceRow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename   string    `gorm:"not null"`
	FilePath   string    `gorm:"not null"`
	Status     string    `gorm:"not null;index"`
	UploadedAt time.Time `gorm:"not null"`
	ProcessedAt *time.Time

	VendorName      string
	InvoiceDate     *time.Time
	TotalAmount     *float64
	ParseMethod     string
	ParseConfidence float64
	OCRConfidence   float64

	ItemCount      int
	DiscardedCount int
	UnmappedCount  int

	TotalCO2eKg         float64
	SustainabilityScore int
	ErrorMessage        string

	Items []InvoiceItemRow `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

func (InvoiceRow) TableName() string { return "invoices" }

// InvoiceItemRow is one parsed line item with its emission mapping.
type InvoiceItemRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`

	RawName        string `gorm:"not null"`
	NormalizedName string
	Quantity       float64
	Unit           string
	UnitPrice      *float64
	Category       string `gorm:"index"`
	Unmapped       bool

	CO2eKg       float64
	KgOrLiters   float64
	FactorKgCO2e float64
	Scope        int
	Impact       string
}

func (InvoiceItemRow) TableName() string { return "invoice_items" }

func (r *InvoiceRow) ToEntity() entity.Invoice {
	return entity.Invoice{
		ID:              r.ID,
		Filename:        r.Filename,
		Status:          constants.InvoiceStatus(r.Status),
		UploadedAt:      r.UploadedAt,
		VendorName:      r.VendorName,
		InvoiceDate:     r.InvoiceDate,
		TotalAmount:     r.TotalAmount,
		ParseMethod:     constants.ParseMethod(r.ParseMethod),
		ParseConfidence: r.ParseConfidence,
		OCRConfidence:   r.OCRConfidence,
		ItemCount:       r.ItemCount,
		ErrorMessage:    r.ErrorMessage,
	}
}

func (r *InvoiceItemRow) ToLineItem() entity.LineItem {
	return entity.LineItem{
		RawName:        r.RawName,
		NormalizedName: r.NormalizedName,
		Quantity:       r.Quantity,
		Unit:           constants.Unit(r.Unit),
		UnitPrice:      r.UnitPrice,
		Category:       constants.Category(r.Category),
		Unmapped:       r.Unmapped,
	}
}

func (r *InvoiceItemRow) ToEmissionRecord() entity.EmissionRecord {
	return entity.EmissionRecord{
		ItemName:     r.RawName,
		Category:     constants.Category(r.Category),
		Scope:        constants.Scope(r.Scope),
		CO2eKg:       r.CO2eKg,
		KgOrLiters:   r.KgOrLiters,
		FactorKgCO2e: r.FactorKgCO2e,
		Impact:       constants.ImpactLevel(r.Impact),
	}
}
