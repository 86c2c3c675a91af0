// Package pricing builds per-product price histories from vendor sheet observations.
package pricing

import (
	"sort"

	"github.com/garyjia/event-invoice-analyzer/internal/matching"
	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"go.uber.org/zap"
)

// DefaultMaxUnmatched caps the unmatched observations returned in a report
const DefaultMaxUnmatched = 50

const dateLayout = "2006-01-02"

// PricePoint is one entry of a product's price history
type PricePoint struct {
	Date       string        `json:"date"`
	Price      models.Amount `json:"price"`
	SourceFile string        `json:"source_file"`
}

// ProductPriceSeries is the price history of one reference product
type ProductPriceSeries struct {
	ProductName      string         `json:"product_name"`
	PriceHistory     []PricePoint   `json:"price_history"`
	AveragePrice     models.Amount  `json:"average_price"`
	MostRecentPrice  *models.Amount `json:"most_recent_price"`
	PercentChange    *models.Amount `json:"percent_change"`
	ObservationCount int            `json:"observation_count"`
}

// UnmatchedItem is an observation that resolved to no reference product
type UnmatchedItem struct {
	ProductName string        `json:"product_name"`
	UnitPrice   models.Amount `json:"unit_price"`
	Date        string        `json:"date"`
	SourceFile  string        `json:"source_file"`
	Row         int           `json:"row,omitempty"`
	BestScore   float64       `json:"best_score"`
}

// Stats summarises how observations were resolved.
// FuzzyMatches includes exact normalized matches; only mapping-table hits
// are counted separately.
type Stats struct {
	TotalObservations int `json:"total_observations"`
	TotalMatched      int `json:"total_matched"`
	ExplicitMatches   int `json:"explicit_matches"`
	FuzzyMatches      int `json:"fuzzy_matches"`
	ExactMatches      int `json:"exact_matches"`
	TotalUnmatched    int `json:"total_unmatched"`
	ProductCount      int `json:"product_count"`
}

// Report is the output of an aggregation run
type Report struct {
	Series    []ProductPriceSeries `json:"series"`
	Unmatched []UnmatchedItem      `json:"unmatched"`
	Stats     Stats                `json:"stats"`
}

// Aggregator groups observations by matched reference product
type Aggregator struct {
	matcher      *matching.Matcher
	maxUnmatched int
	logger       *zap.Logger
}

// NewAggregator creates an Aggregator. maxUnmatched <= 0 selects DefaultMaxUnmatched.
func NewAggregator(matcher *matching.Matcher, maxUnmatched int, logger *zap.Logger) *Aggregator {
	if maxUnmatched <= 0 {
		maxUnmatched = DefaultMaxUnmatched
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		matcher:      matcher,
		maxUnmatched: maxUnmatched,
		logger:       logger,
	}
}

type observationGroup struct {
	product      string
	observations []models.PriceObservation
}

// Aggregate resolves every observation to a reference product and builds
// one price series per product, sorted by product name
func (a *Aggregator) Aggregate(observations []models.PriceObservation, references []string, mapping matching.Mapping) *Report {
	refs := matching.NewReferenceSet(references)

	report := &Report{
		Series:    make([]ProductPriceSeries, 0),
		Unmatched: make([]UnmatchedItem, 0),
	}
	report.Stats.TotalObservations = len(observations)

	groups := make(map[string]*observationGroup)
	for _, obs := range observations {
		res := a.matcher.Resolve(obs.ProductName, refs, mapping)
		if !res.Matched {
			report.Stats.TotalUnmatched++
			if len(report.Unmatched) < a.maxUnmatched {
				report.Unmatched = append(report.Unmatched, toUnmatched(obs, res.Score))
			}
			continue
		}

		report.Stats.TotalMatched++
		switch res.Method {
		case matching.MethodMapping:
			report.Stats.ExplicitMatches++
		case matching.MethodExact:
			report.Stats.ExactMatches++
			report.Stats.FuzzyMatches++
		default:
			report.Stats.FuzzyMatches++
		}

		g, ok := groups[res.Reference]
		if !ok {
			g = &observationGroup{product: res.Reference}
			groups[res.Reference] = g
		}
		g.observations = append(g.observations, obs)
	}

	for _, g := range groups {
		report.Series = append(report.Series, buildSeries(g))
	}
	sort.Slice(report.Series, func(i, j int) bool {
		return report.Series[i].ProductName < report.Series[j].ProductName
	})
	report.Stats.ProductCount = len(report.Series)

	a.logger.Info("Price aggregation completed",
		zap.Int("observations", report.Stats.TotalObservations),
		zap.Int("matched", report.Stats.TotalMatched),
		zap.Int("explicit", report.Stats.ExplicitMatches),
		zap.Int("fuzzy", report.Stats.FuzzyMatches),
		zap.Int("unmatched", report.Stats.TotalUnmatched),
		zap.Int("products", report.Stats.ProductCount))

	return report
}

// buildSeries sorts a group by date and derives its statistics.
// Rounding happens only when the output values are constructed.
func buildSeries(g *observationGroup) ProductPriceSeries {
	obs := make([]models.PriceObservation, len(g.observations))
	copy(obs, g.observations)
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Date.Before(obs[j].Date)
	})

	series := ProductPriceSeries{
		ProductName:      g.product,
		PriceHistory:     make([]PricePoint, 0, len(obs)),
		ObservationCount: len(obs),
	}
	if len(obs) == 0 {
		return series
	}

	sum := 0.0
	for _, o := range obs {
		sum += o.UnitPrice
		series.PriceHistory = append(series.PriceHistory, PricePoint{
			Date:       o.Date.Format(dateLayout),
			Price:      models.NewAmount(o.UnitPrice),
			SourceFile: o.SourceFile,
		})
	}

	avg := sum / float64(len(obs))
	latest := obs[len(obs)-1].UnitPrice

	series.AveragePrice = models.NewAmount(avg)
	mostRecent := models.NewAmount(latest)
	series.MostRecentPrice = &mostRecent
	if avg != 0 {
		change := models.NewAmount((latest - avg) / avg * 100)
		series.PercentChange = &change
	}

	return series
}

func toUnmatched(obs models.PriceObservation, score float64) UnmatchedItem {
	return UnmatchedItem{
		ProductName: obs.ProductName,
		UnitPrice:   models.NewAmount(obs.UnitPrice),
		Date:        obs.Date.Format(dateLayout),
		SourceFile:  obs.SourceFile,
		Row:         obs.Row,
		BestScore:   models.Round2(score),
	}
}
