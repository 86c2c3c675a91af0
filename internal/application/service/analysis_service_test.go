package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func item(desc string, cat models.Category, total float64) models.LineItem {
	return models.LineItem{Description: desc, Quantity: 1, UnitPrice: total, Total: total, Category: cat}
}

func TestAnalysisService_Analyze(t *testing.T) {
	extractor := &fakeExtractor{
		results: map[string]*models.ExtractionResult{
			"a.pdf": {
				EventDetails: models.EventDetails{EventName: "Team Night", GuestCount: 20},
				LineItems: []models.LineItem{
					item("Full Course package", models.CategoryFood, 1000),
					item("Bowling lanes", models.CategoryBowling, 150),
				},
				PreloadedDrinks: &models.PreloadedDrinks{Quantity: 20, PricePerPerson: 15, Total: 300},
			},
			"c.pdf": {
				LineItems: []models.LineItem{
					item("Karaoke room", models.CategoryKaraoke, 80),
					item("Booking fee", models.CategoryBookingFee, 25.5),
					item("Parking", models.Category("PARKING"), 40),
				},
			},
		},
		errs: map[string]error{"b.pdf": extraction.ErrEmptyDocument},
	}
	metrics := newFakeMetrics()
	svc := NewAnalysisService(extractor, 2, metrics, zap.NewNop())

	docs := []extraction.Document{{FileName: "a.pdf"}, {FileName: "b.pdf"}, {FileName: "c.pdf"}}
	res, err := svc.Analyze(context.Background(), docs)
	require.NoError(t, err)

	t.Run("results keep upload order", func(t *testing.T) {
		require.Len(t, res.Documents, 3)
		assert.Equal(t, "a.pdf", res.Documents[0].FileName)
		assert.Equal(t, "b.pdf", res.Documents[1].FileName)
		assert.Equal(t, "c.pdf", res.Documents[2].FileName)
	})

	t.Run("failed document carries its error", func(t *testing.T) {
		assert.False(t, res.Documents[1].Success)
		assert.Nil(t, res.Documents[1].Breakdown)
		assert.Contains(t, res.Documents[1].Error, extraction.ErrEmptyDocument.Error())
	})

	t.Run("per-document breakdown", func(t *testing.T) {
		b := res.Documents[0].Breakdown
		require.NotNil(t, b)
		assert.Equal(t, "Team Night", b.EventDetails.EventName)
		assert.Equal(t, models.Amount(700), b.Totals.Food)
		assert.Equal(t, models.Amount(300), b.Totals.Drinks)
		assert.Equal(t, models.Amount(1150), b.Totals.GrandTotal)

		assert.Len(t, res.Documents[2].Breakdown.DroppedItems, 1)
	})

	t.Run("combined totals skip failures", func(t *testing.T) {
		c := res.Combined
		assert.Equal(t, 3, c.DocumentCount)
		assert.Equal(t, 2, c.SuccessCount)
		assert.Equal(t, 1, c.FailureCount)
		assert.Equal(t, models.Amount(230), c.Totals.Entertainment)
		assert.Equal(t, models.Amount(1255.5), c.Totals.GrandTotal)
	})

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(t, 2, metrics.documents[true])
		assert.Equal(t, 1, metrics.documents[false])
		assert.Equal(t, 1, metrics.dropped)
	})
}

func TestAnalysisService_NoDocuments(t *testing.T) {
	svc := NewAnalysisService(&fakeExtractor{}, 0, nil, nil)

	_, err := svc.Analyze(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestAnalysisService_BoundedConcurrency(t *testing.T) {
	extractor := &fakeExtractor{delay: 20 * time.Millisecond}
	svc := NewAnalysisService(extractor, 2, nil, zap.NewNop())

	docs := make([]extraction.Document, 6)
	for i := range docs {
		docs[i] = extraction.Document{FileName: fmt.Sprintf("%d.pdf", i)}
	}

	res, err := svc.Analyze(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Combined.SuccessCount)
	assert.LessOrEqual(t, extractor.maxInFlight, 2)
}

func TestAnalysisService_Cancelled(t *testing.T) {
	extractor := &fakeExtractor{delay: time.Second}
	svc := NewAnalysisService(extractor, 1, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, []extraction.Document{{FileName: "a.pdf"}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalysisService_Breakdown(t *testing.T) {
	metrics := newFakeMetrics()
	svc := NewAnalysisService(&fakeExtractor{}, 1, metrics, zap.NewNop())

	b := svc.Breakdown("manual", &models.ExtractionResult{
		LineItems: []models.LineItem{
			item("Wings", models.CategoryFood, 100),
			item("Mystery", models.Category("UNKNOWN"), 10),
		},
		PreloadedDrinks: &models.PreloadedDrinks{Total: 150},
	})

	assert.Equal(t, models.Amount(0), b.Totals.Food)
	assert.Equal(t, models.Amount(150), b.Totals.Drinks)
	require.NotNil(t, b.DrinksAdjustment)
	assert.True(t, b.DrinksAdjustment.Clamped)
	assert.Equal(t, 1, metrics.dropped)
}
