package models

import "time"

// PriceObservation is one product price read from a vendor sheet
type PriceObservation struct {
	ProductName string    `json:"product_name"`
	UnitPrice   float64   `json:"unit_price"`
	Date        time.Time `json:"date"`
	SourceFile  string    `json:"source_file"`
	// Row is the 1-based spreadsheet row, 0 when unknown
	Row int `json:"row,omitempty"`
}
