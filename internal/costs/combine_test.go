package costs

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine_SumsSuccessfulDocuments(t *testing.T) {
	a := Calculate([]models.LineItem{item(models.CategoryFood, 10), item(models.CategoryBowling, 4)}, nil)
	b := Calculate([]models.LineItem{item(models.CategoryFood, 5), item(models.CategoryDarts, 6), item(models.CategoryBookingFee, 2)}, nil)

	combined := Combine([]DocumentResult{Succeeded("a.pdf", a), Succeeded("b.pdf", b)})

	assert.Equal(t, models.Amount(15), combined.Totals.Food)
	assert.Equal(t, models.Amount(4), combined.Totals.Bowling)
	assert.Equal(t, models.Amount(6), combined.Totals.Darts)
	assert.Equal(t, models.Amount(10), combined.Totals.Entertainment)
	assert.Equal(t, models.Amount(2), combined.Totals.BookingFee)
	assert.Equal(t, models.Amount(27), combined.Totals.GrandTotal)
	assert.Equal(t, 2, combined.SuccessCount)
	assert.Equal(t, 0, combined.FailureCount)
	assert.Empty(t, combined.Failures)
}

func TestCombine_ExcludesFailures(t *testing.T) {
	ok := Calculate([]models.LineItem{item(models.CategoryFood, 10)}, nil)
	zero := Calculate(nil, nil)

	combined := Combine([]DocumentResult{
		Succeeded("ok.pdf", ok),
		Failed("broken.pdf", errors.New("failed to parse response")),
		Succeeded("empty.pdf", zero),
	})

	assert.Equal(t, 3, combined.DocumentCount)
	assert.Equal(t, 2, combined.SuccessCount, "zero-total documents still count as successes")
	assert.Equal(t, 1, combined.FailureCount)
	require.Len(t, combined.Failures, 1)
	assert.Equal(t, "broken.pdf", combined.Failures[0].FileName)
	assert.Contains(t, combined.Failures[0].Error, "parse")
	assert.Equal(t, models.Amount(10), combined.Totals.GrandTotal)
}

func TestCombine_SumsUnroundedValues(t *testing.T) {
	docs := make([]*CostBreakdown, 0, 3)
	for i := 0; i < 3; i++ {
		docs = append(docs, Calculate([]models.LineItem{item(models.CategoryFood, 0.004)}, nil))
	}

	combined := CombineBreakdowns(docs)

	// each document rounds to 0.00 but the batch total is 0.012
	assert.Equal(t, models.Amount(0), docs[0].Totals.Food)
	assert.Equal(t, models.Amount(0.01), combined.Totals.Food)
}

func TestCombine_Empty(t *testing.T) {
	combined := Combine(nil)

	assert.Equal(t, 0, combined.DocumentCount)
	assert.Equal(t, RoundedTotals{}, combined.Totals)
}

func TestCombine_JSONHasTwoDecimals(t *testing.T) {
	combined := CombineBreakdowns([]*CostBreakdown{
		Calculate([]models.LineItem{item(models.CategoryFood, 10)}, nil),
	})

	data, err := json.Marshal(combined)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"food":10.00`)
	assert.Contains(t, string(data), `"drinks":0.00`)
}

func TestCalculate_JSONRoundsItemMoney(t *testing.T) {
	items := []models.LineItem{
		{Description: "Sliders", Quantity: 3, UnitPrice: 4.333333, Total: 12.999999, Category: models.CategoryFood},
		{Description: "Valet", Quantity: 1, UnitPrice: 7.125, Total: 7.125, Category: models.Category("PARKING")},
	}
	preloaded := &models.PreloadedDrinks{Quantity: 3, PricePerPerson: 3.3333333, Total: 10.0000001}

	data, err := json.Marshal(Calculate(items, preloaded))
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"unit_price":4.33,"total":13.00`)
	assert.Contains(t, out, `"preloaded_drinks":{"quantity":3,"price_per_person":3.33,"total":10.00}`)
	assert.Contains(t, out, `"unit_price":7.13,"total":7.13`)
	assert.NotContains(t, out, "12.999999")
	assert.NotContains(t, out, "10.0000001")
}
