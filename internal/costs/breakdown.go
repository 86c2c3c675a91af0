// Package costs computes per-category cost breakdowns for event invoices and
// folds them into combined totals across a batch of documents.
package costs

import (
	"github.com/garyjia/event-invoice-analyzer/internal/models"
)

// Totals holds one figure per category. Entertainment is the sum of the
// entertainment subtypes and GrandTotal is food + drinks + entertainment + booking fee.
type Totals struct {
	Food               float64
	Drinks             float64
	Bowling            float64
	Darts              float64
	MiniGolf           float64
	Shuffleboard       float64
	Karaoke            float64
	OtherEntertainment float64
	Entertainment      float64
	BookingFee         float64
	GrandTotal         float64
}

// RoundedTotals is the output form of Totals
type RoundedTotals struct {
	Food               models.Amount `json:"food"`
	Drinks             models.Amount `json:"drinks"`
	Bowling            models.Amount `json:"bowling"`
	Darts              models.Amount `json:"darts"`
	MiniGolf           models.Amount `json:"mini_golf"`
	Shuffleboard       models.Amount `json:"shuffleboard"`
	Karaoke            models.Amount `json:"karaoke"`
	OtherEntertainment models.Amount `json:"other_entertainment"`
	Entertainment      models.Amount `json:"entertainment"`
	BookingFee         models.Amount `json:"booking_fee"`
	GrandTotal         models.Amount `json:"grand_total"`
}

// Rounded converts t to its two-decimal output form
func (t Totals) Rounded() RoundedTotals {
	return RoundedTotals{
		Food:               models.NewAmount(t.Food),
		Drinks:             models.NewAmount(t.Drinks),
		Bowling:            models.NewAmount(t.Bowling),
		Darts:              models.NewAmount(t.Darts),
		MiniGolf:           models.NewAmount(t.MiniGolf),
		Shuffleboard:       models.NewAmount(t.Shuffleboard),
		Karaoke:            models.NewAmount(t.Karaoke),
		OtherEntertainment: models.NewAmount(t.OtherEntertainment),
		Entertainment:      models.NewAmount(t.Entertainment),
		BookingFee:         models.NewAmount(t.BookingFee),
		GrandTotal:         models.NewAmount(t.GrandTotal),
	}
}

// entertainmentSum adds up the entertainment subtypes
func (t Totals) entertainmentSum() float64 {
	return t.Bowling + t.Darts + t.MiniGolf + t.Shuffleboard + t.Karaoke + t.OtherEntertainment
}

func (t *Totals) add(c models.Category, amount float64) bool {
	switch c {
	case models.CategoryFood:
		t.Food += amount
	case models.CategoryDrinks:
		t.Drinks += amount
	case models.CategoryBowling:
		t.Bowling += amount
	case models.CategoryDarts:
		t.Darts += amount
	case models.CategoryMiniGolf:
		t.MiniGolf += amount
	case models.CategoryShuffleboard:
		t.Shuffleboard += amount
	case models.CategoryKaraoke:
		t.Karaoke += amount
	case models.CategoryOtherEntertainment:
		t.OtherEntertainment += amount
	case models.CategoryBookingFee:
		t.BookingFee += amount
	default:
		return false
	}
	return true
}

// DrinksAdjustment records how a preloaded drink credit moved money from food to drinks
type DrinksAdjustment struct {
	Requested models.Amount `json:"requested"`
	// Applied is the amount actually removed from food after clamping at zero
	Applied models.Amount `json:"applied"`
	Clamped bool          `json:"clamped"`
}

// LineItemOutput is a line item with its money rounded for output
type LineItemOutput struct {
	Description string          `json:"description"`
	Quantity    float64         `json:"quantity"`
	UnitPrice   models.Amount   `json:"unit_price"`
	Total       models.Amount   `json:"total"`
	Category    models.Category `json:"category"`
	Notes       string          `json:"notes,omitempty"`
}

func newLineItemOutput(item models.LineItem) LineItemOutput {
	return LineItemOutput{
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   models.NewAmount(item.UnitPrice),
		Total:       models.NewAmount(item.Total),
		Category:    item.Category,
		Notes:       item.Notes,
	}
}

func lineItemOutputs(items []models.LineItem) []LineItemOutput {
	if items == nil {
		return nil
	}
	out := make([]LineItemOutput, len(items))
	for i, item := range items {
		out[i] = newLineItemOutput(item)
	}
	return out
}

// PreloadedDrinksOutput is the preloaded drink credit rounded for output
type PreloadedDrinksOutput struct {
	Quantity       float64       `json:"quantity"`
	PricePerPerson models.Amount `json:"price_per_person"`
	Total          models.Amount `json:"total"`
}

// CostBreakdown is the per-document result
type CostBreakdown struct {
	Totals           RoundedTotals          `json:"totals"`
	EventDetails     models.EventDetails    `json:"event_details"`
	LineItems        []LineItemOutput       `json:"line_items"`
	PreloadedDrinks  *PreloadedDrinksOutput `json:"preloaded_drinks,omitempty"`
	DrinksAdjustment *DrinksAdjustment      `json:"drinks_adjustment,omitempty"`
	// DroppedItems are line items whose category matched no bucket
	DroppedItems []LineItemOutput `json:"dropped_items,omitempty"`

	raw Totals
}

// Raw returns the unrounded totals
func (b *CostBreakdown) Raw() Totals {
	return b.raw
}

// Calculate sums line item totals per category and applies the preloaded drinks rule.
//
// Items with an unrecognised category contribute to no bucket and are listed in
// DroppedItems. When preloaded carries a total, that amount is moved from food
// (floored at zero) to drinks. Drinks always receive the full preloaded total,
// even when food is clamped.
func Calculate(items []models.LineItem, preloaded *models.PreloadedDrinks) *CostBreakdown {
	var t Totals
	var dropped []models.LineItem

	for _, item := range items {
		if !t.add(item.Category, item.Total) {
			dropped = append(dropped, item)
		}
	}

	b := &CostBreakdown{
		LineItems:    lineItemOutputs(items),
		DroppedItems: lineItemOutputs(dropped),
	}

	if preloaded != nil && preloaded.Total != 0 {
		p := *preloaded
		b.PreloadedDrinks = &PreloadedDrinksOutput{
			Quantity:       p.Quantity,
			PricePerPerson: models.NewAmount(p.PricePerPerson),
			Total:          models.NewAmount(p.Total),
		}

		adj := &DrinksAdjustment{Requested: models.NewAmount(p.Total)}
		food := t.Food - p.Total
		applied := p.Total
		if food < 0 {
			applied = t.Food
			food = 0
			adj.Clamped = true
		}
		adj.Applied = models.NewAmount(applied)

		t.Food = food
		t.Drinks += p.Total
		b.DrinksAdjustment = adj
	}

	t.Entertainment = t.entertainmentSum()
	t.GrandTotal = t.Food + t.Drinks + t.Entertainment + t.BookingFee

	b.raw = t
	b.Totals = t.Rounded()
	return b
}

// Breakdown builds a CostBreakdown for an extracted document, carrying its event details
func Breakdown(result *models.ExtractionResult) *CostBreakdown {
	b := Calculate(result.LineItems, result.PreloadedDrinks)
	b.EventDetails = result.EventDetails
	return b
}
