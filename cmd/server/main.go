package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/event-invoice-analyzer/internal/application/service"
	"github.com/garyjia/event-invoice-analyzer/internal/config"
	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	httpapi "github.com/garyjia/event-invoice-analyzer/internal/interfaces/http"
	"github.com/garyjia/event-invoice-analyzer/internal/matching"
	"github.com/garyjia/event-invoice-analyzer/internal/metrics"
	"github.com/garyjia/event-invoice-analyzer/internal/storage"
	"github.com/garyjia/event-invoice-analyzer/internal/worker"
	"github.com/garyjia/event-invoice-analyzer/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (default: "+defaultConfigPath+" when present)")
	flag.Parse()

	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := utils.NewLogger(cfg.LoggerSettings("event-invoice-analyzer"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting event invoice analyzer",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("extraction_enabled", cfg.OpenAI.Enabled()))

	prompts, err := cfg.LoadPrompts()
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	var (
		extractor  extraction.Extractor
		identifier extraction.ColumnIdentifier = extraction.KeywordIdentifier{}
	)
	if cfg.OpenAI.Enabled() {
		client := extraction.NewOpenAIClient(cfg.ClientConfig())
		retry := extraction.NewRetryStrategy(cfg.OpenAI.MaxRetries)
		extractor = extraction.NewOpenAIExtractor(client, prompts, retry, cfg.ExtractorConfig(), logger)
		identifier = extraction.NewOpenAIColumnIdentifier(client, prompts, retry, cfg.OpenAI.Model, logger)
	} else {
		logger.Warn("No OpenAI API key configured: invoice extraction disabled, columns identified by keyword")
		extractor = extraction.DisabledExtractor{}
	}

	m := metrics.New()
	matcher := matching.NewMatcher(cfg.MatcherConfig(), logger)

	analysis := service.NewAnalysisService(extractor, cfg.Analysis.Concurrency, m, logger)
	reconciliation := service.NewReconciliationService(identifier, matcher, cfg.ReconcileServiceConfig(), m, logger)

	if err := os.MkdirAll(cfg.Uploads.Dir, 0755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	fileStorage := storage.NewLocalFileStorage(cfg.Uploads.Dir, cfg.Server.MaxFileSizeMB<<20, logger)
	folders := storage.NewFolderManager(fileStorage, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers := worker.NewManager(logger)
	workers.Register(worker.NewUploadJanitor(folders, cfg.Uploads.CleanupInterval, cfg.Uploads.TTL, logger))
	if err := workers.StartAll(ctx); err != nil {
		return err
	}
	defer workers.StopAll()

	serverCfg := httpapi.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		MaxUploadBytes:    cfg.Server.MaxUploadMB << 20,
		ExtractionEnabled: cfg.OpenAI.Enabled(),
		Version:           version,
	}
	server := httpapi.NewServer(serverCfg, httpapi.Dependencies{
		Analysis:       analysis,
		Reconciliation: reconciliation,
		Folders:        folders,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	}, logger)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
