package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prad18/fork/internal/async"
	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/entity"
	"github.com/prad18/fork/internal/export"
	"github.com/prad18/fork/internal/parser"
	"github.com/prad18/fork/internal/recommend"
	"github.com/prad18/fork/internal/repository"
)

// InvoiceStore is the slice of the repository the HTTP layer needs.
type InvoiceStore interface {
	CreateUpload(ctx context.Context, filename, filePath string) (entity.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (entity.Invoice, error)
	Items(ctx context.Context, id uuid.UUID) ([]entity.LineItem, []entity.EmissionRecord, error)
	List(ctx context.Context, limit, offset int) ([]entity.Invoice, error)
	CountByStatus(ctx context.Context) (repository.DashboardCounts, error)
	CompletedItems(ctx context.Context, recent int) ([]entity.LineItem, error)
}

// Pinger reports backing-store health for the liveness endpoint.
type Pinger func(ctx context.Context) error

type Server struct {
	store     InvoiceStore
	queue     async.Queue
	parser    parser.InvoiceParser
	calc      *carbon.Calculator
	engine    *recommend.Engine
	exporter  *export.Service
	ping      Pinger
	uploadDir string
	logger    *slog.Logger
}

func NewServer(
	store InvoiceStore,
	queue async.Queue,
	invParser parser.InvoiceParser,
	calc *carbon.Calculator,
	engine *recommend.Engine,
	exporter *export.Service,
	ping Pinger,
	uploadDir string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     store,
		queue:     queue,
		parser:    invParser,
		calc:      calc,
		engine:    engine,
		exporter:  exporter,
		ping:      ping,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Router wires all routes onto a fresh gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", s.health)

	api := r.Group("/api/v1")
	{
		api.POST("/invoices", s.uploadInvoice)
		api.GET("/invoices", s.listInvoices)
		api.GET("/invoices/:id", s.getInvoice)
		api.POST("/invoices/:id/reprocess", s.reprocessInvoice)
		api.GET("/invoices/:id/export", s.exportInvoice)
		api.GET("/dashboard", s.dashboard)
		api.POST("/parse/text", s.parseText)
	}
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
