package parser

import (
	"context"
	"testing"
	"time"

	"github.com/prad18/fork/constants"
)

const sampleInvoice = `ORGANIC HARVEST DISTRIBUTORS
123 Farm Road, Greenfield
Invoice Date: June 28, 2025

Qty  Unit  Item Description          Price
------------------------------------------
10 lb Heirloom Carrots (Organic) $2.10
2 box Grass-Fed Beef Ribeye $32.50
4 gal Whole Milk $4.25
3 case Sparkling Water $18.00

Subtotal: $395.10
Tax: $32.85
TOTAL: $427.95
`

func TestPatternParserSampleInvoice(t *testing.T) {
	p := NewPatternParser(nil)
	inv, err := p.Parse(context.Background(), sampleInvoice, "invoice.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if inv.VendorName != "ORGANIC HARVEST DISTRIBUTORS" {
		t.Errorf("vendor = %q", inv.VendorName)
	}
	if inv.InvoiceDate == nil || !inv.InvoiceDate.Equal(time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want 2025-06-28", inv.InvoiceDate)
	}
	if inv.TotalAmount == nil || *inv.TotalAmount != 427.95 {
		t.Errorf("total = %v, want 427.95 (grand total, not subtotal)", inv.TotalAmount)
	}
	if inv.ParseMethod != constants.ParseMethodFallback {
		t.Errorf("method = %v", inv.ParseMethod)
	}
	if inv.ParseConfidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", inv.ParseConfidence)
	}

	if len(inv.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(inv.Items))
	}
	first := inv.Items[0]
	if first.RawName != "Heirloom Carrots (Organic)" {
		t.Errorf("name = %q", first.RawName)
	}
	if first.Quantity != 10 || first.Unit != constants.UnitLB {
		t.Errorf("qty/unit = %v %v", first.Quantity, first.Unit)
	}
	if first.UnitPrice == nil || *first.UnitPrice != 2.10 {
		t.Errorf("price = %v", first.UnitPrice)
	}
	if first.Category != constants.Vegetable {
		t.Errorf("category = %v, want vegetable", first.Category)
	}
	if milk := inv.Items[2]; milk.Unit != constants.UnitGal || milk.Category != constants.Dairy {
		t.Errorf("milk row = %+v", milk)
	}
}

func TestPatternParserSingleRow(t *testing.T) {
	p := NewPatternParser(nil)
	inv, err := p.Parse(context.Background(), "1 lb Organic Carrots $2.50", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(inv.Items))
	}
	it := inv.Items[0]
	if it.RawName != "Organic Carrots" || it.Quantity != 1 || it.Unit != constants.UnitLB {
		t.Errorf("item = %+v", it)
	}
	if it.UnitPrice == nil || *it.UnitPrice != 2.50 {
		t.Errorf("price = %v", it.UnitPrice)
	}
	if it.Category != constants.Vegetable {
		t.Errorf("category = %v", it.Category)
	}
}

func TestPatternParserEmptyText(t *testing.T) {
	p := NewPatternParser(nil)
	for _, text := range []string{"", "   \n\n  "} {
		inv, err := p.Parse(context.Background(), text, "")
		if err != nil {
			t.Fatalf("Parse(%q): %v", text, err)
		}
		if len(inv.Items) != 0 {
			t.Errorf("items = %d, want 0", len(inv.Items))
		}
		if inv.ParseConfidence != 0 {
			t.Errorf("confidence = %v, want 0", inv.ParseConfidence)
		}
	}
}

func TestPatternParserUnknownUnitCountsByUnit(t *testing.T) {
	p := NewPatternParser(nil)
	inv, err := p.Parse(context.Background(), "3 dozen Eggs $4.50", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(inv.Items))
	}
	it := inv.Items[0]
	if it.Unit != constants.UnitCount {
		t.Errorf("unit = %v, want count", it.Unit)
	}
	if it.RawName != "dozen Eggs" {
		t.Errorf("name = %q, want token folded into name", it.RawName)
	}
	if !it.Unmapped {
		t.Error("count-unit item must be flagged unmapped")
	}
}

func TestPatternParserCountsDroppedRows(t *testing.T) {
	p := NewPatternParser(nil)
	text := "2 lb Carrots $2.10\n0 lb Flour $3.00\n1 kg Rice $1.80"
	inv, err := p.Parse(context.Background(), text, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2: %+v", len(inv.Items), inv.Items)
	}
	if inv.DiscardedCount != 1 {
		t.Errorf("discarded = %d, want 1 for the zero-quantity row", inv.DiscardedCount)
	}
	// prose between rows is skipped, not counted as discarded
	inv, err = p.Parse(context.Background(), "2 lb Carrots $2.10\nThank you for your business", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inv.DiscardedCount != 0 {
		t.Errorf("discarded = %d, want 0 for prose", inv.DiscardedCount)
	}
}

func TestPatternParserSkipsProse(t *testing.T) {
	p := NewPatternParser(nil)
	inv, err := p.Parse(context.Background(), "Thank you for your business\nPlease remit within 30 days", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(inv.Items) != 0 {
		t.Errorf("items = %d, want 0: %+v", len(inv.Items), inv.Items)
	}
}
