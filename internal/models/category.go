package models

import "strings"

// Category classifies a line item on an event invoice
type Category string

// Category constants
const (
	CategoryFood               Category = "FOOD"
	CategoryDrinks             Category = "DRINKS"
	CategoryBowling            Category = "BOWLING"
	CategoryDarts              Category = "DARTS"
	CategoryMiniGolf           Category = "MINI_GOLF"
	CategoryShuffleboard       Category = "SHUFFLEBOARD"
	CategoryKaraoke            Category = "KARAOKE"
	CategoryOtherEntertainment Category = "OTHER_ENTERTAINMENT"
	CategoryBookingFee         Category = "BOOKING_FEE"
)

// AllCategories lists every known category in reporting order
var AllCategories = []Category{
	CategoryFood,
	CategoryDrinks,
	CategoryBowling,
	CategoryDarts,
	CategoryMiniGolf,
	CategoryShuffleboard,
	CategoryKaraoke,
	CategoryOtherEntertainment,
	CategoryBookingFee,
}

// EntertainmentCategories lists the subtypes rolled into the aggregate entertainment figure
var EntertainmentCategories = []Category{
	CategoryBowling,
	CategoryDarts,
	CategoryMiniGolf,
	CategoryShuffleboard,
	CategoryKaraoke,
	CategoryOtherEntertainment,
}

// categoryAliases maps loose spellings seen in model output to a category
var categoryAliases = map[string]Category{
	"DRINK":         CategoryDrinks,
	"BEVERAGE":      CategoryDrinks,
	"BEVERAGES":     CategoryDrinks,
	"BAR":           CategoryDrinks,
	"FOODS":         CategoryFood,
	"MINIGOLF":      CategoryMiniGolf,
	"PUTT_PUTT":     CategoryMiniGolf,
	"GOLF":          CategoryMiniGolf,
	"DART":          CategoryDarts,
	"ENTERTAINMENT": CategoryOtherEntertainment,
	"ACTIVITY":      CategoryOtherEntertainment,
	"ACTIVITIES":    CategoryOtherEntertainment,
	"FEE":           CategoryBookingFee,
	"FEES":          CategoryBookingFee,
	"SERVICE_FEE":   CategoryBookingFee,
	"BOOKING":       CategoryBookingFee,
	"DEPOSIT":       CategoryBookingFee,
}

// IsKnown reports whether c is one of the defined categories
func (c Category) IsKnown() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsEntertainment reports whether c is an entertainment subtype
func (c Category) IsEntertainment() bool {
	for _, e := range EntertainmentCategories {
		if c == e {
			return true
		}
	}
	return false
}

// ParseCategory converts a raw category string into a Category.
// Matching is case-insensitive and treats spaces and dashes as underscores.
// The second return value is false when the value is not recognised; the
// returned Category then carries the cleaned raw value.
func ParseCategory(raw string) (Category, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	c := Category(key)
	if c.IsKnown() {
		return c, true
	}
	if alias, ok := categoryAliases[key]; ok {
		return alias, true
	}
	return c, false
}
