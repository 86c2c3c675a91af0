package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/event-invoice-analyzer/internal/application/port"
	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/matching"
	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"github.com/garyjia/event-invoice-analyzer/internal/pricing"
	"github.com/garyjia/event-invoice-analyzer/internal/spreadsheet"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// DefaultSampleRows is how many rows are shown to the column identifier
const DefaultSampleRows = 5

// SheetFile is an uploaded spreadsheet on disk
type SheetFile struct {
	Name string
	Path string
}

// ReconcileInput names the sheets of one reconciliation request
type ReconcileInput struct {
	Reference SheetFile
	Mapping   *SheetFile
	Vendors   []SheetFile
}

// SheetError reports a vendor sheet that was skipped
type SheetError struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// VendorSheet describes how a vendor sheet was read
type VendorSheet struct {
	FileName       string             `json:"file_name"`
	Columns        extraction.Columns `json:"columns"`
	Observations   int                `json:"observations"`
	DefaultedDates int                `json:"defaulted_dates"`
}

// ReconcileReport is the price series report plus per-sheet diagnostics
type ReconcileReport struct {
	*pricing.Report
	ReferenceCount int                   `json:"reference_count"`
	MappingCount   int                   `json:"mapping_count"`
	VendorSheets   []VendorSheet         `json:"vendor_sheets"`
	SheetErrors    []SheetError          `json:"sheet_errors"`
	SkippedRows    []spreadsheet.RowSkip `json:"skipped_rows"`
}

// MatchRequest is an ad-hoc batch of names to resolve
type MatchRequest struct {
	Candidates []string          `json:"candidates"`
	References []string          `json:"references"`
	Mapping    map[string]string `json:"mapping"`
}

// ReconciliationService matches vendor price sheets against a reference product list
type ReconciliationService interface {
	Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileReport, error)
	Match(req MatchRequest) []matching.Result
}

// ReconcileConfig tunes the reconciliation service
type ReconcileConfig struct {
	MaxUnmatched int
	SampleRows   int
	Concurrency  int
}

type reconciliationServiceImpl struct {
	identifier extraction.ColumnIdentifier
	matcher    *matching.Matcher
	aggregator *pricing.Aggregator
	cfg        ReconcileConfig
	metrics    port.MetricsRecorder
	now        func() time.Time
	logger     *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	identifier extraction.ColumnIdentifier,
	matcher *matching.Matcher,
	cfg ReconcileConfig,
	metrics port.MetricsRecorder,
	logger *zap.Logger,
) ReconciliationService {
	return newReconciliationService(identifier, matcher, cfg, metrics, time.Now, logger)
}

func newReconciliationService(
	identifier extraction.ColumnIdentifier,
	matcher *matching.Matcher,
	cfg ReconcileConfig,
	metrics port.MetricsRecorder,
	now func() time.Time,
	logger *zap.Logger,
) *reconciliationServiceImpl {
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = DefaultSampleRows
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reconciliationServiceImpl{
		identifier: identifier,
		matcher:    matcher,
		aggregator: pricing.NewAggregator(matcher, cfg.MaxUnmatched, logger),
		cfg:        cfg,
		metrics:    metrics,
		now:        now,
		logger:     logger,
	}
}

type vendorOutcome struct {
	sheet  VendorSheet
	result spreadsheet.ObservationResult
	err    error
}

// Reconcile reads the reference list, the optional mapping table and every
// vendor sheet, then aggregates the observations into price series. Vendor
// sheets that cannot be read are reported in SheetErrors; a bad reference or
// mapping sheet fails the request.
func (s *reconciliationServiceImpl) Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileReport, error) {
	if in.Reference.Path == "" {
		return nil, ErrNoReference
	}
	if len(in.Vendors) == 0 {
		return nil, ErrNoVendorSheets
	}

	references, err := s.readReference(ctx, in.Reference)
	if err != nil {
		return nil, err
	}

	mapping := make(matching.Mapping)
	if in.Mapping != nil && in.Mapping.Path != "" {
		sheet, err := spreadsheet.ReadFile(in.Mapping.Name, in.Mapping.Path)
		if err != nil {
			return nil, fmt.Errorf("mapping sheet %s: %w", in.Mapping.Name, err)
		}
		mapping = spreadsheet.ReadMapping(sheet)
	}

	now := s.now()
	mapper := iter.Mapper[SheetFile, vendorOutcome]{MaxGoroutines: s.cfg.Concurrency}
	outcomes := mapper.Map(in.Vendors, func(f *SheetFile) vendorOutcome {
		return s.readVendor(ctx, *f, now)
	})

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconciliation cancelled: %w", err)
	}

	report := &ReconcileReport{
		ReferenceCount: len(references),
		MappingCount:   len(mapping),
		VendorSheets:   make([]VendorSheet, 0, len(outcomes)),
		SheetErrors:    make([]SheetError, 0),
		SkippedRows:    make([]spreadsheet.RowSkip, 0),
	}

	var observations []models.PriceObservation
	for _, o := range outcomes {
		if o.err != nil {
			s.logger.Warn("Vendor sheet skipped",
				zap.String("file", o.sheet.FileName),
				zap.Error(o.err))
			report.SheetErrors = append(report.SheetErrors, SheetError{FileName: o.sheet.FileName, Error: o.err.Error()})
			continue
		}
		observations = append(observations, o.result.Observations...)
		report.SkippedRows = append(report.SkippedRows, o.result.Skipped...)
		report.VendorSheets = append(report.VendorSheets, o.sheet)
	}

	report.Report = s.aggregator.Aggregate(observations, references, mapping)
	s.recordStats(report.Stats)

	s.logger.Info("Reconciliation completed",
		zap.Int("vendor_sheets", len(in.Vendors)),
		zap.Int("sheet_errors", len(report.SheetErrors)),
		zap.Int("skipped_rows", len(report.SkippedRows)),
		zap.Int("products", report.Stats.ProductCount))

	return report, nil
}

func (s *reconciliationServiceImpl) readReference(ctx context.Context, f SheetFile) ([]string, error) {
	sheet, err := spreadsheet.ReadFile(f.Name, f.Path)
	if err != nil {
		return nil, fmt.Errorf("reference sheet %s: %w", f.Name, err)
	}

	cols, err := s.identifier.Identify(ctx, sheet.Headers, sheet.Sample(s.cfg.SampleRows))
	if err == nil && cols.Product == "" {
		err = extraction.ErrNoProductColumn
	}
	if err != nil {
		return nil, fmt.Errorf("reference sheet %s: %w", f.Name, err)
	}

	return spreadsheet.ReferenceProducts(sheet, cols.Product), nil
}

func (s *reconciliationServiceImpl) readVendor(ctx context.Context, f SheetFile, now time.Time) vendorOutcome {
	out := vendorOutcome{sheet: VendorSheet{FileName: f.Name}}

	sheet, err := spreadsheet.ReadFile(f.Name, f.Path)
	if err != nil {
		out.err = err
		return out
	}

	cols, err := s.identifier.Identify(ctx, sheet.Headers, sheet.Sample(s.cfg.SampleRows))
	switch {
	case err != nil:
		out.err = err
		return out
	case cols.Product == "":
		out.err = extraction.ErrNoProductColumn
		return out
	case cols.Price == "":
		out.err = ErrNoPriceColumn
		return out
	}

	s.logger.Debug("Vendor sheet columns identified",
		zap.String("file", f.Name),
		zap.String("product", cols.Product),
		zap.String("price", cols.Price),
		zap.String("date", cols.Date),
		zap.String("source", cols.Source))

	out.result = spreadsheet.Observations(sheet, cols, f.Name, now)
	out.sheet.Columns = cols
	out.sheet.Observations = len(out.result.Observations)
	out.sheet.DefaultedDates = out.result.DefaultedDates
	return out
}

func (s *reconciliationServiceImpl) recordStats(st pricing.Stats) {
	s.metrics.ObserveMatches(string(matching.MethodMapping), st.ExplicitMatches)
	s.metrics.ObserveMatches(string(matching.MethodExact), st.ExactMatches)
	s.metrics.ObserveMatches(string(matching.MethodFuzzy), st.FuzzyMatches-st.ExactMatches)
	s.metrics.ObserveMatches(string(matching.MethodNone), st.TotalUnmatched)
}

// Match resolves each candidate against the references and mapping, in input order
func (s *reconciliationServiceImpl) Match(req MatchRequest) []matching.Result {
	refs := matching.NewReferenceSet(req.References)
	mapping := matching.NewMapping(req.Mapping)

	counts := make(map[matching.Method]int)
	results := make([]matching.Result, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		r := s.matcher.Resolve(c, refs, mapping)
		counts[r.Method]++
		results = append(results, r)
	}

	for method, n := range counts {
		s.metrics.ObserveMatches(string(method), n)
	}
	return results
}

// IsInputError reports whether err was caused by the uploaded input rather than the server
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrNoDocuments,
		ErrNoReference,
		ErrNoVendorSheets,
		ErrNoPriceColumn,
		extraction.ErrNoProductColumn,
		spreadsheet.ErrEmptySheet,
		spreadsheet.ErrUnsupportedFormat,
		spreadsheet.ErrInvalidSheet,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
