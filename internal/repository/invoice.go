package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/entity"
)

// InvoiceRepository persists invoices, their line items, and derived
// emission results.
type InvoiceRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *gorm.DB, logger *slog.Logger) *InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceRepository{db: db, logger: logger}
}

// CreateUpload registers a freshly uploaded document in pending state.
func (r *InvoiceRepository) CreateUpload(ctx context.Context, filename, filePath string) (entity.Invoice, error) {
	row := InvoiceRow{
		ID:         uuid.New(),
		Filename:   filename,
		FilePath:   filePath,
		Status:     string(constants.StatusPending),
		UploadedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entity.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	r.logger.Info("repository.invoice.created", "invoice_id", row.ID, "filename", filename)
	return row.ToEntity(), nil
}

// Get returns the invoice header.
func (r *InvoiceRepository) Get(ctx context.Context, id uuid.UUID) (entity.Invoice, error) {
	var row InvoiceRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Invoice{}, common.ErrNotFound
	}
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return row.ToEntity(), nil
}

// FilePath returns the stored document path for reprocessing.
func (r *InvoiceRepository) FilePath(ctx context.Context, id uuid.UUID) (string, error) {
	var row InvoiceRow
	err := r.db.WithContext(ctx).Select("file_path").First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get invoice path: %w", err)
	}
	return row.FilePath, nil
}

// Items returns the stored line items for an invoice.
func (r *InvoiceRepository) Items(ctx context.Context, id uuid.UUID) ([]entity.LineItem, []entity.EmissionRecord, error) {
	var rows []InvoiceItemRow
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", id).Order("id").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("get invoice items: %w", err)
	}
	items := make([]entity.LineItem, 0, len(rows))
	records := make([]entity.EmissionRecord, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToLineItem())
		if !rows[i].Unmapped {
			rec := rows[i].ToEmissionRecord()
			rec.ItemIndex = i
			records = append(records, rec)
		}
	}
	return items, records, nil
}

// List returns invoice headers newest first.
func (r *InvoiceRepository) List(ctx context.Context, limit, offset int) ([]entity.Invoice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []InvoiceRow
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := make([]entity.Invoice, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	return out, nil
}

// SetStatus moves an invoice through the processing lifecycle. The error
// message column is only populated on failure and cleared otherwise.
func (r *InvoiceRepository) SetStatus(ctx context.Context, id uuid.UUID, status constants.InvoiceStatus, errMsg string) error {
	updates := map[string]any{
		"status":        string(status),
		"error_message": errMsg,
	}
	if status == constants.StatusCompleted || status == constants.StatusFailed {
		now := time.Now().UTC()
		updates["processed_at"] = &now
	}
	res := r.db.WithContext(ctx).Model(&InvoiceRow{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("repository.invoice.status", "invoice_id", id, "status", status)
	return nil
}

// SaveResults stores a completed processing pass in one transaction: header
// fields from the parse, per-item rows with their emission mapping, and the
// summary projection. Existing item rows are replaced, never merged, so a
// reprocess fully re-derives the stored results.
func (r *InvoiceRepository) SaveResults(
	ctx context.Context,
	id uuid.UUID,
	parsed entity.ParsedInvoice,
	ocrConfidence float64,
	records []entity.EmissionRecord,
	summary entity.EmissionsSummary,
) error {
	// join by item position, not name: duplicate names are legal
	recByIndex := make(map[int]entity.EmissionRecord, len(records))
	for _, rec := range records {
		recByIndex[rec.ItemIndex] = rec
	}

	itemRows := make([]InvoiceItemRow, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		row := InvoiceItemRow{
			InvoiceID:      id,
			RawName:        item.RawName,
			NormalizedName: item.NormalizedName,
			Quantity:       item.Quantity,
			Unit:           string(item.Unit),
			UnitPrice:      item.UnitPrice,
			Category:       string(item.Category),
			Unmapped:       item.Unmapped,
		}
		if rec, ok := recByIndex[i]; ok {
			row.CO2eKg = rec.CO2eKg
			row.KgOrLiters = rec.KgOrLiters
			row.FactorKgCO2e = rec.FactorKgCO2e
			row.Scope = int(rec.Scope)
			row.Impact = string(rec.Impact)
		} else {
			row.Unmapped = true
		}
		itemRows = append(itemRows, row)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":               string(constants.StatusCompleted),
		"processed_at":         &now,
		"vendor_name":          parsed.VendorName,
		"invoice_date":         parsed.InvoiceDate,
		"total_amount":         parsed.TotalAmount,
		"parse_method":         string(parsed.ParseMethod),
		"parse_confidence":     parsed.ParseConfidence,
		"ocr_confidence":       ocrConfidence,
		"item_count":           len(parsed.Items),
		"discarded_count":      parsed.DiscardedCount,
		"unmapped_count":       summary.UnmappedCount,
		"total_co2e_kg":        summary.TotalCO2eKg,
		"sustainability_score": summary.SustainabilityScore,
		"error_message":        "",
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&InvoiceRow{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItemRow{}).Error; err != nil {
			return err
		}
		if len(itemRows) > 0 {
			if err := tx.Create(&itemRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	r.logger.Info("repository.invoice.results_saved",
		"invoice_id", id,
		"items", len(itemRows),
		"total_co2e_kg", summary.TotalCO2eKg,
		"score", summary.SustainabilityScore,
	)
	return nil
}

// DashboardCounts is the status breakdown for the dashboard endpoint.
type DashboardCounts struct {
	Total      int64
	Pending    int64
	Processing int64
	Completed  int64
	Failed     int64
}

func (r *InvoiceRepository) CountByStatus(ctx context.Context) (DashboardCounts, error) {
	var out DashboardCounts
	type pair struct {
		Status string
		N      int64
	}
	var pairs []pair
	err := r.db.WithContext(ctx).Model(&InvoiceRow{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&pairs).Error
	if err != nil {
		return out, fmt.Errorf("count invoices: %w", err)
	}
	for _, p := range pairs {
		out.Total += p.N
		switch constants.InvoiceStatus(p.Status) {
		case constants.StatusPending:
			out.Pending = p.N
		case constants.StatusProcessing:
			out.Processing = p.N
		case constants.StatusCompleted:
			out.Completed = p.N
		case constants.StatusFailed:
			out.Failed = p.N
		}
	}
	return out, nil
}

// CompletedItems streams every mapped item row of completed invoices,
// newest invoices first, for fleet-level aggregation.
func (r *InvoiceRepository) CompletedItems(ctx context.Context, recent int) ([]entity.LineItem, error) {
	q := r.db.WithContext(ctx).Model(&InvoiceRow{}).
		Select("id").
		Where("status = ?", string(constants.StatusCompleted)).
		Order("uploaded_at DESC")
	if recent > 0 {
		q = q.Limit(recent)
	}
	var ids []uuid.UUID
	if err := q.Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("completed invoices: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []InvoiceItemRow
	if err := r.db.WithContext(ctx).Where("invoice_id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("completed items: %w", err)
	}
	items := make([]entity.LineItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToLineItem())
	}
	return items, nil
}
