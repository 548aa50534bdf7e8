package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prad18/fork/internal/async"
	"github.com/prad18/fork/internal/carbon"
	"github.com/prad18/fork/internal/common"
	"github.com/prad18/fork/internal/export"
	"github.com/prad18/fork/internal/extract"
	"github.com/prad18/fork/internal/llm/openai"
	"github.com/prad18/fork/internal/ocr"
	"github.com/prad18/fork/internal/parser"
	"github.com/prad18/fork/internal/pipeline"
	"github.com/prad18/fork/internal/recommend"
	"github.com/prad18/fork/internal/repository"
	"github.com/prad18/fork/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, using process environment")
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.Migrate(db); err != nil {
		logger.Error("migrate schema", "error", err)
		os.Exit(1)
	}

	repo := repository.NewInvoiceRepository(db, logger)

	table, err := carbon.LoadFactors(cfg.Carbon.FactorsPath)
	if err != nil {
		logger.Error("load emission factors", "path", cfg.Carbon.FactorsPath, "error", err)
		os.Exit(1)
	}
	if cfg.Carbon.ScoreBenchmark > 0 {
		table.ScoreBenchmark = cfg.Carbon.ScoreBenchmark
	}
	calc := carbon.NewCalculator(table, logger)
	engine := recommend.NewEngine(table, cfg.Carbon.MaterialityThreshold, logger)

	extractor := extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		TessdataDir:         cfg.OCR.TessdataDir,
		ArtifactCacheDir:    cfg.OCR.ArtifactCacheDir,
		EnableTSVConfidence: true,
		PreprocessImages:    true,
	}, logger))

	var model parser.InvoiceParser
	if cfg.LLM.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "" {
		client := openai.NewClient(openai.Config{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			Timeout:      cfg.LLM.Timeout,
			LenientItems: true,
		}, logger)
		model = parser.NewModelParser(client, logger)
		logger.Info("model parser enabled", "model", cfg.LLM.Model)
	} else {
		logger.Warn("no model API key configured, pattern fallback only")
	}
	invParser := parser.NewLayeredParser(model, parser.NewPatternParser(logger), cfg.LLM.Timeout, logger)

	proc := pipeline.NewProcessor(repo, extractor, invParser, calc, logger)
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Server.Workers),
		async.WithQueueSize(cfg.Server.QueueSize),
	)

	exporter := export.NewService(repo, logger)
	ping := healthPing(pool, logger)
	srv := server.NewServer(repo, queue, invParser, calc, engine, exporter, ping, cfg.Server.UploadDir, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

func healthPing(pool *pgxpool.Pool, logger *slog.Logger) server.Pinger {
	return func(ctx context.Context) error {
		return repository.HealthCheck(ctx, pool, 3*time.Second, logger)
	}
}
