package extraction

import "errors"

var (
	// Input errors
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document has no readable content")

	// Model errors
	ErrNoResponse         = errors.New("no response from model")
	ErrInvalidExtraction  = errors.New("extraction output does not match schema")
	ErrExtractionDisabled = errors.New("document extraction is not configured")

	// Column identification errors
	ErrNoProductColumn = errors.New("no product description column identified")
)
