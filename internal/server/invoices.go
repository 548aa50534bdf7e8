package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prad18/fork/constants"
	"github.com/prad18/fork/internal/async"
	"github.com/prad18/fork/internal/common"
)

// uploadInvoice accepts one multipart document, stores it on disk, registers
// the upload, and queues it for processing. The response is immediate; the
// pipeline runs in the background.
func (s *Server) uploadInvoice(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	if file.Size > constants.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds %d MB limit", constants.MaxUploadBytes>>20),
		})
		return
	}
	ext := constants.NormalizeExt(filepath.Ext(file.Filename))
	if constants.MapExtToFormat(ext) == "" {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": fmt.Sprintf("unsupported file type %q; allowed: pdf, jpg, jpeg, png", ext),
		})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.logger.Error("upload.mkdir_failed", "dir", s.uploadDir, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}
	// stored name is unique per upload; original filename only lives in the DB
	destName := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	destPath := filepath.Join(s.uploadDir, destName)
	if err := c.SaveUploadedFile(file, destPath); err != nil {
		s.logger.Error("upload.save_failed", "path", destPath, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}

	inv, err := s.store.CreateUpload(c.Request.Context(), filepath.Base(file.Filename), destPath)
	if err != nil {
		s.logger.Error("upload.register_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register upload"})
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		InvoiceID:   inv.ID,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("upload.enqueue_failed", "invoice_id", inv.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue for processing"})
		return
	}

	s.logger.Info("upload.accepted", "invoice_id", inv.ID, "filename", inv.Filename, "bytes", file.Size)
	c.JSON(http.StatusAccepted, gin.H{
		"id":       inv.ID,
		"filename": inv.Filename,
		"status":   inv.Status,
	})
}

func (s *Server) listInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invoices, err := s.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.Error("invoices.list_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list invoices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "count": len(invoices)})
}

// getInvoice returns the stored header, every line item, the per-item
// emission records, the aggregate summary, and recommendations derived from
// it. Recommendations are recomputed on each read, never persisted.
func (s *Server) getInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		s.logger.Error("invoices.get_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load invoice"})
		return
	}

	items, records, err := s.store.Items(c.Request.Context(), id)
	if err != nil {
		s.logger.Error("invoices.items_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load invoice items"})
		return
	}

	resp := gin.H{"invoice": inv, "items": items}
	if inv.Status == constants.StatusCompleted {
		_, summary := s.calc.Compute(items)
		resp["emissions"] = records
		resp["summary"] = summary
		resp["recommendations"] = s.engine.Recommend(records, summary)
	}
	c.JSON(http.StatusOK, resp)
}

// reprocessInvoice re-runs the pipeline against the original stored file.
// Results are replaced wholesale, so a factor-table update flows through on
// the next read.
func (s *Server) reprocessInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		s.logger.Error("invoices.reprocess_lookup_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load invoice"})
		return
	}
	if inv.Status == constants.StatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "invoice is already processing"})
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		InvoiceID:   id,
		Force:       true,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("invoices.reprocess_enqueue_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue for processing"})
		return
	}

	s.logger.Info("invoices.reprocess_queued", "invoice_id", id)
	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": constants.StatusPending})
}

func (s *Server) exportInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	xlsx, err := s.exporter.ExportInvoiceXLSX(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		s.logger.Error("invoices.export_failed", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	name := fmt.Sprintf("emissions-%s.xlsx", strings.Split(id.String(), "-")[0])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsx)
}
