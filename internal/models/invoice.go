package models

// LineItem is one charge extracted from an event invoice
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	Total       float64  `json:"total"`
	Category    Category `json:"category"`
	Notes       string   `json:"notes,omitempty"`
}

// PreloadedDrinks is a drink credit bundled inside a Full Course package price
type PreloadedDrinks struct {
	Quantity       float64 `json:"quantity"`
	PricePerPerson float64 `json:"price_per_person"`
	Total          float64 `json:"total"`
}

// Package tiers sold by the venue
const (
	PackageFrontNine  = "FRONT_NINE"  // food only
	PackageBackNine   = "BACK_NINE"   // drinks only
	PackageFullCourse = "FULL_COURSE" // food and drinks combined
)

// EventDetails holds the event metadata printed on an invoice
type EventDetails struct {
	EventName     string `json:"event_name,omitempty"`
	EventDate     string `json:"event_date,omitempty"`
	Venue         string `json:"venue,omitempty"`
	GuestCount    int    `json:"guest_count,omitempty"`
	PackageTier   string `json:"package_tier,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

// ExtractionResult is the structured content of one invoice document
type ExtractionResult struct {
	EventDetails    EventDetails     `json:"event_details"`
	LineItems       []LineItem       `json:"line_items"`
	PreloadedDrinks *PreloadedDrinks `json:"preloaded_drinks,omitempty"`
	// UnknownCategories lists raw category values that did not parse
	UnknownCategories []string `json:"unknown_categories,omitempty"`
}
