package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/llm"
)

// stubExtractor plays the model: either a canned response or an error.
type stubExtractor struct {
	fields llm.InvoiceFields
	err    error
	calls  int
}

func (s *stubExtractor) ExtractInvoice(_ context.Context, _ llm.ExtractRequest) (llm.InvoiceFields, []byte, error) {
	s.calls++
	if s.err != nil {
		return llm.InvoiceFields{}, nil, s.err
	}
	return s.fields, nil, nil
}

func TestModelParserConvertsFields(t *testing.T) {
	stub := &stubExtractor{fields: llm.InvoiceFields{
		VendorName:  "Fresh Farms Co",
		InvoiceDate: "2026-08-12",
		TotalAmount: "185.00",
		Items: []llm.ItemFields{
			{Name: "Ground Beef", Quantity: 10, Unit: "lb", UnitPrice: "8.50", Category: "protein"},
			{Name: "Mystery Snack", Quantity: 2, Unit: "furlong", Category: "snacks"},
		},
		ModelConfidence: 0.92,
		DiscardedItems:  1,
	}}
	p := NewModelParser(stub, nil)
	inv, err := p.Parse(context.Background(), "text", "inv.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inv.ParseMethod != constants.ParseMethodModel {
		t.Errorf("method = %v", inv.ParseMethod)
	}
	if inv.VendorName != "Fresh Farms Co" {
		t.Errorf("vendor = %q", inv.VendorName)
	}
	if inv.InvoiceDate == nil || !inv.InvoiceDate.Equal(time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", inv.InvoiceDate)
	}
	if inv.TotalAmount == nil || *inv.TotalAmount != 185.00 {
		t.Errorf("total = %v", inv.TotalAmount)
	}
	if inv.ParseConfidence != 0.92 {
		t.Errorf("confidence = %v", inv.ParseConfidence)
	}
	if inv.DiscardedCount != 1 {
		t.Errorf("discarded = %d, want 1 (client-side repairs carry over)", inv.DiscardedCount)
	}

	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}
	beef := inv.Items[0]
	if beef.Unit != constants.UnitLB || beef.Category != constants.Protein {
		t.Errorf("beef = %+v", beef)
	}
	if beef.UnitPrice == nil || *beef.UnitPrice != 8.50 {
		t.Errorf("beef price = %v", beef.UnitPrice)
	}
	// unknown unit and category fall back to count + name-derived category
	snack := inv.Items[1]
	if snack.Unit != constants.UnitCount || !snack.Unmapped {
		t.Errorf("snack = %+v", snack)
	}
	if snack.Category != constants.Other {
		t.Errorf("snack category = %v, want other", snack.Category)
	}
}

func TestModelParserDropsInvalidItems(t *testing.T) {
	stub := &stubExtractor{fields: llm.InvoiceFields{
		VendorName: "Acme",
		Items: []llm.ItemFields{
			{Name: "Beef", Quantity: 2, Unit: "kg"},
			{Name: "", Quantity: 3},
			{Name: "Ghost", Quantity: 0},
		},
	}}
	p := NewModelParser(stub, nil)
	inv, err := p.Parse(context.Background(), "text", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Errorf("items = %d, want 1", len(inv.Items))
	}
	if inv.DiscardedCount != 2 {
		t.Errorf("discarded = %d, want 2", inv.DiscardedCount)
	}
	if inv.ParseConfidence != defaultModelConfidence {
		t.Errorf("confidence = %v, want default", inv.ParseConfidence)
	}
}

func TestModelParserSignalsUnavailable(t *testing.T) {
	stub := &stubExtractor{err: errors.New("connection refused")}
	p := NewModelParser(stub, nil)

	_, err := p.Parse(context.Background(), "any text", "inv.pdf")
	if err == nil {
		t.Fatal("want error when the extractor fails")
	}
	if !errors.Is(err, common.ErrModelUnavailable) {
		t.Errorf("error %v does not match common.ErrModelUnavailable", err)
	}
}

func TestLayeredParserFallsBackOnModelError(t *testing.T) {
	stub := &stubExtractor{err: errors.New("connection refused")}
	p := NewLayeredParser(NewModelParser(stub, nil), NewPatternParser(nil), time.Second, nil)

	inv, err := p.Parse(context.Background(), "1 lb Organic Carrots $2.50", "inv.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("model calls = %d, want 1", stub.calls)
	}
	if inv.ParseMethod != constants.ParseMethodFallback {
		t.Errorf("method = %v, want fallback", inv.ParseMethod)
	}
	if len(inv.Items) != 1 || inv.Items[0].Category != constants.Vegetable {
		t.Errorf("items = %+v", inv.Items)
	}
}

func TestLayeredParserFallsBackOnEmptyModelResult(t *testing.T) {
	stub := &stubExtractor{fields: llm.InvoiceFields{VendorName: "Acme"}}
	p := NewLayeredParser(NewModelParser(stub, nil), NewPatternParser(nil), time.Second, nil)

	inv, err := p.Parse(context.Background(), "2 kg Chicken Breast $5.00", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inv.ParseMethod != constants.ParseMethodFallback {
		t.Errorf("method = %v, want fallback", inv.ParseMethod)
	}
	if len(inv.Items) != 1 {
		t.Errorf("items = %d, want 1", len(inv.Items))
	}
}

func TestLayeredParserPrefersModel(t *testing.T) {
	stub := &stubExtractor{fields: llm.InvoiceFields{
		VendorName: "Acme",
		Items:      []llm.ItemFields{{Name: "Beef", Quantity: 2, Unit: "kg"}},
	}}
	p := NewLayeredParser(NewModelParser(stub, nil), NewPatternParser(nil), time.Second, nil)

	inv, err := p.Parse(context.Background(), "irrelevant", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inv.ParseMethod != constants.ParseMethodModel {
		t.Errorf("method = %v, want model", inv.ParseMethod)
	}
}

func TestLayeredParserWithoutModel(t *testing.T) {
	p := NewLayeredParser(nil, NewPatternParser(nil), time.Second, nil)
	inv, err := p.Parse(context.Background(), "1 lb Kale $3.00", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if inv.ParseMethod != constants.ParseMethodFallback || len(inv.Items) != 1 {
		t.Errorf("inv = %+v", inv)
	}
}
