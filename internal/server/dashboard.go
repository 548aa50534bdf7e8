package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// dashboard aggregates emissions across every completed invoice into one
// fleet-level summary. Aggregation runs over the stored line items, so the
// dashboard always reflects the current factor table. The recent query
// parameter only sizes the invoice metadata list, never the summary.
func (s *Server) dashboard(c *gin.Context) {
	recent, _ := strconv.Atoi(c.DefaultQuery("recent", "100"))
	if recent <= 0 {
		recent = 100
	}

	counts, err := s.store.CountByStatus(c.Request.Context())
	if err != nil {
		s.logger.Error("dashboard.counts_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}

	items, err := s.store.CompletedItems(c.Request.Context(), 0)
	if err != nil {
		s.logger.Error("dashboard.items_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}

	recentInvoices, err := s.store.List(c.Request.Context(), recent, 0)
	if err != nil {
		s.logger.Error("dashboard.recent_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}

	records, summary := s.calc.Compute(items)
	recs := s.engine.Recommend(records, summary)

	c.JSON(http.StatusOK, gin.H{
		"invoices": gin.H{
			"total":      counts.Total,
			"pending":    counts.Pending,
			"processing": counts.Processing,
			"completed":  counts.Completed,
			"failed":     counts.Failed,
		},
		"recent":          recentInvoices,
		"summary":         summary,
		"recommendations": recs,
	})
}
