package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/event-invoice-analyzer/internal/application/port"
	"github.com/garyjia/event-invoice-analyzer/internal/costs"
	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// DefaultConcurrency bounds parallel document extraction when none is configured
const DefaultConcurrency = 4

// AnalysisResult is the outcome of analyzing a batch of invoices
type AnalysisResult struct {
	Documents []costs.DocumentResult `json:"documents"`
	Combined  *costs.CombinedTotals  `json:"combined"`
}

// AnalysisService turns uploaded invoices into cost breakdowns
type AnalysisService interface {
	Analyze(ctx context.Context, docs []extraction.Document) (*AnalysisResult, error)
	Breakdown(fileName string, result *models.ExtractionResult) *costs.CostBreakdown
}

type analysisServiceImpl struct {
	extractor   extraction.Extractor
	concurrency int
	metrics     port.MetricsRecorder
	logger      *zap.Logger
}

// NewAnalysisService creates a new AnalysisService. concurrency <= 0 selects DefaultConcurrency.
func NewAnalysisService(
	extractor extraction.Extractor,
	concurrency int,
	metrics port.MetricsRecorder,
	logger *zap.Logger,
) AnalysisService {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analysisServiceImpl{
		extractor:   extractor,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Analyze extracts every document, computes its breakdown and combines the
// successful ones. A failing document is reported in its result and never
// fails the batch. Results keep upload order.
func (s *analysisServiceImpl) Analyze(ctx context.Context, docs []extraction.Document) (*AnalysisResult, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	start := time.Now()
	s.logger.Info("Analyzing invoices",
		zap.Int("documents", len(docs)),
		zap.Int("concurrency", s.concurrency))

	mapper := iter.Mapper[extraction.Document, costs.DocumentResult]{MaxGoroutines: s.concurrency}
	results := mapper.Map(docs, func(doc *extraction.Document) costs.DocumentResult {
		return s.analyzeOne(ctx, *doc)
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	combined := costs.Combine(results)

	s.logger.Info("Invoice analysis completed",
		zap.Int("documents", combined.DocumentCount),
		zap.Int("succeeded", combined.SuccessCount),
		zap.Int("failed", combined.FailureCount),
		zap.Stringer("grand_total", combined.Totals.GrandTotal),
		zap.Duration("elapsed", time.Since(start)))

	return &AnalysisResult{Documents: results, Combined: combined}, nil
}

func (s *analysisServiceImpl) analyzeOne(ctx context.Context, doc extraction.Document) costs.DocumentResult {
	extracted, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.metrics.ObserveDocument(false)
		s.logger.Warn("Invoice extraction failed",
			zap.String("file", doc.FileName),
			zap.Error(err))
		return costs.Failed(doc.FileName, err)
	}

	s.metrics.ObserveDocument(true)
	return costs.Succeeded(doc.FileName, s.Breakdown(doc.FileName, extracted))
}

// Breakdown computes the cost breakdown of one extraction result and reports dropped items
func (s *analysisServiceImpl) Breakdown(fileName string, result *models.ExtractionResult) *costs.CostBreakdown {
	b := costs.Breakdown(result)

	if n := len(b.DroppedItems); n > 0 {
		s.metrics.ObserveDroppedItems(n)
		for _, item := range b.DroppedItems {
			s.logger.Warn("Line item dropped: unknown category",
				zap.String("file", fileName),
				zap.String("description", item.Description),
				zap.String("category", string(item.Category)),
				zap.Stringer("total", item.Total))
		}
	}

	if adj := b.DrinksAdjustment; adj != nil && adj.Clamped {
		s.logger.Warn("Preloaded drinks exceed food total, food clamped at zero",
			zap.String("file", fileName),
			zap.Float64("requested", adj.Requested.Float64()),
			zap.Float64("applied", adj.Applied.Float64()))
	}

	return b
}
