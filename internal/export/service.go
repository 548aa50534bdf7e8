package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/prad18/fork/internal/entity"
)

// InvoiceSource is the slice of the repository the exporter reads from.
type InvoiceSource interface {
	Get(ctx context.Context, id uuid.UUID) (entity.Invoice, error)
	Items(ctx context.Context, id uuid.UUID) ([]entity.LineItem, []entity.EmissionRecord, error)
}

// Service is a tiny façade over the repository that produces XLSX bytes for
// emission report exports.
type Service struct {
	src    InvoiceSource
	logger *slog.Logger
}

func NewService(src InvoiceSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, logger: logger}
}

// ExportInvoiceXLSX returns an XLSX workbook (as bytes) with one row per line
// item: quantity, category, and the mapped carbon result. Unmapped items
// appear with blank emission columns so the workbook accounts for every line.
func (s *Service) ExportInvoiceXLSX(ctx context.Context, invoiceID uuid.UUID) ([]byte, error) {
	start := time.Now()

	inv, err := s.src.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	items, records, err := s.src.Items(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	byIndex := make(map[int]entity.EmissionRecord, len(records))
	for _, rec := range records {
		byIndex[rec.ItemIndex] = rec
	}

	f := excelize.NewFile()
	const sheet = "Emissions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Item",
		"Quantity",
		"Unit",
		"Category",
		"Unit Price",
		"Scope",
		"Factor (kg CO2e/kg)",
		"CO2e (kg)",
		"Impact",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for i, item := range items {
		write(1, row, item.RawName)
		write(2, row, item.Quantity)
		write(3, row, string(item.Unit))
		write(4, row, string(item.Category))
		if item.UnitPrice != nil {
			write(5, row, fmt.Sprintf("%.2f", *item.UnitPrice))
		}
		if rec, ok := byIndex[i]; ok && !item.Unmapped {
			write(6, row, fmt.Sprintf("Scope %d", int(rec.Scope)))
			write(7, row, rec.FactorKgCO2e)
			write(8, row, rec.CO2eKg)
			write(9, row, string(rec.Impact))
		}
		row++
	}

	// Summary block under the items.
	row++
	write(1, row, "Invoice")
	write(2, row, inv.Filename)
	row++
	if inv.VendorName != "" {
		write(1, row, "Vendor")
		write(2, row, inv.VendorName)
		row++
	}
	if inv.InvoiceDate != nil {
		write(1, row, "Invoice Date")
		write(2, row, inv.InvoiceDate.Format("2006-01-02"))
		row++
	}
	var total float64
	for _, rec := range records {
		total += rec.CO2eKg
	}
	write(1, row, "Total CO2e (kg)")
	write(2, row, total)

	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "C", 10)
	_ = f.SetColWidth(sheet, "D", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 10)
	_ = f.SetColWidth(sheet, "G", "H", 18)
	_ = f.SetColWidth(sheet, "I", "I", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoice_id", invoiceID.String(),
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// DocumentResult is one processed document in a batch run.
type DocumentResult struct {
	Filename string
	Parsed   entity.ParsedInvoice
	Summary  entity.EmissionsSummary
}

// BatchXLSX renders one workbook row per processed document plus a fleet
// total. It has no storage dependency; batch runs work entirely in memory.
func BatchXLSX(results []DocumentResult) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Batch"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"File", "Vendor", "Items", "Unmapped", "Total CO2e (kg)", "Score"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	var totalCO2e float64
	row := 2
	for _, res := range results {
		write(1, row, res.Filename)
		write(2, row, res.Parsed.VendorName)
		write(3, row, len(res.Parsed.Items))
		write(4, row, res.Summary.UnmappedCount)
		write(5, row, res.Summary.TotalCO2eKg)
		write(6, row, res.Summary.SustainabilityScore)
		totalCO2e += res.Summary.TotalCO2eKg
		row++
	}

	row++
	write(1, row, "Total")
	write(5, row, totalCO2e)

	_ = f.SetColWidth(sheet, "A", "A", 36)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "D", 10)
	_ = f.SetColWidth(sheet, "E", "E", 18)
	_ = f.SetColWidth(sheet, "F", "F", 8)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
