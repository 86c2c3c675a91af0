package service

import "errors"

var (
	ErrNoDocuments    = errors.New("no documents uploaded")
	ErrNoReference    = errors.New("reference product list is required")
	ErrNoVendorSheets = errors.New("no vendor sheets uploaded")
	ErrNoPriceColumn  = errors.New("no price column found")
)
