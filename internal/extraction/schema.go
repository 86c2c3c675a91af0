package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// invoiceSchema describes the JSON the model must return for an invoice.
// Category is a free string here; it is checked against the known categories
// after validation so unknown values surface as dropped items instead of
// failing the whole document.
func invoiceSchema() map[string]any {
	number := map[string]any{"type": "number"}
	optString := map[string]any{"type": []any{"string", "null"}}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{"type": "string"},
			"quantity":    map[string]any{"type": []any{"number", "null"}},
			"unitPrice":   map[string]any{"type": []any{"number", "null"}},
			"total":       number,
			"category":    map[string]any{"type": "string"},
			"notes":       optString,
		},
		"required": []any{"description", "total", "category"},
	}

	preloaded := map[string]any{
		"type": []any{"object", "null"},
		"properties": map[string]any{
			"quantity":       map[string]any{"type": []any{"number", "null"}},
			"pricePerPerson": map[string]any{"type": []any{"number", "null"}},
			"total":          map[string]any{"type": []any{"number", "null"}},
		},
	}

	eventDetails := map[string]any{
		"type": []any{"object", "null"},
		"properties": map[string]any{
			"eventName":     optString,
			"eventDate":     optString,
			"venue":         optString,
			"guestCount":    map[string]any{"type": []any{"number", "null"}},
			"packageTier":   optString,
			"invoiceNumber": optString,
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"eventDetails":    eventDetails,
			"lineItems":       map[string]any{"type": "array", "items": lineItem},
			"preloadedDrinks": preloaded,
		},
		"required": []any{"lineItems"},
	}
}

var (
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
	compileOnce       sync.Once
)

func loadInvoiceSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(invoiceSchema())
		if err != nil {
			compiledSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("invoice.json")
	})
	return compiledSchema, compiledSchemaErr
}

// ValidateInvoiceJSON checks raw model output against the invoice schema
func ValidateInvoiceJSON(data []byte) error {
	schema, err := loadInvoiceSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}
	return nil
}
