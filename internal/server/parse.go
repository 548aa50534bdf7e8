package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type parseTextRequest struct {
	Text string `json:"text" binding:"required"`
	Hint string `json:"filename_hint"`
}

// parseText is a diagnostic endpoint: it runs the parser and calculator over
// raw text without touching storage. Useful for tuning patterns and factor
// coverage against a problem document.
func (s *Server) parseText(c *gin.Context) {
	var req parseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a non-empty 'text' field"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'text' must not be blank"})
		return
	}

	parsed, err := s.parser.Parse(c.Request.Context(), req.Text, req.Hint)
	if err != nil {
		s.logger.Error("parse_text.failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	records, summary := s.calc.Compute(parsed.Items)
	c.JSON(http.StatusOK, gin.H{
		"parsed":          parsed,
		"emissions":       records,
		"summary":         summary,
		"recommendations": s.engine.Recommend(records, summary),
	})
}
