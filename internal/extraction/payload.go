package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/event-invoice-analyzer/internal/models"
)

// invoicePayload is the wire shape returned by the model
type invoicePayload struct {
	EventDetails *struct {
		EventName     string  `json:"eventName"`
		EventDate     string  `json:"eventDate"`
		Venue         string  `json:"venue"`
		GuestCount    float64 `json:"guestCount"`
		PackageTier   string  `json:"packageTier"`
		InvoiceNumber string  `json:"invoiceNumber"`
	} `json:"eventDetails"`
	LineItems []struct {
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unitPrice"`
		Total       float64 `json:"total"`
		Category    string  `json:"category"`
		Notes       string  `json:"notes"`
	} `json:"lineItems"`
	PreloadedDrinks *struct {
		Quantity       float64 `json:"quantity"`
		PricePerPerson float64 `json:"pricePerPerson"`
		Total          float64 `json:"total"`
	} `json:"preloadedDrinks"`
}

// ParseInvoiceResponse validates model output and converts it to an ExtractionResult.
// JSON wrapped in markdown fences or surrounded by prose is accepted.
// Category strings are resolved here; unrecognised values are kept verbatim
// and listed in UnknownCategories.
func ParseInvoiceResponse(content string) (*models.ExtractionResult, error) {
	raw := strings.TrimSpace(content)
	if !json.Valid([]byte(raw)) {
		extracted := extractJSON(raw)
		if extracted == "" {
			return nil, fmt.Errorf("%w: response is not JSON", ErrInvalidExtraction)
		}
		raw = extracted
	}

	if err := ValidateInvoiceJSON([]byte(raw)); err != nil {
		return nil, err
	}

	var payload invoicePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &models.ExtractionResult{
		LineItems: make([]models.LineItem, 0, len(payload.LineItems)),
	}

	if d := payload.EventDetails; d != nil {
		result.EventDetails = models.EventDetails{
			EventName:     strings.TrimSpace(d.EventName),
			EventDate:     strings.TrimSpace(d.EventDate),
			Venue:         strings.TrimSpace(d.Venue),
			GuestCount:    int(d.GuestCount),
			PackageTier:   normalizeTier(d.PackageTier),
			InvoiceNumber: strings.TrimSpace(d.InvoiceNumber),
		}
	}

	for _, li := range payload.LineItems {
		category, known := models.ParseCategory(li.Category)
		if !known {
			result.UnknownCategories = append(result.UnknownCategories, li.Category)
		}
		result.LineItems = append(result.LineItems, models.LineItem{
			Description: strings.TrimSpace(li.Description),
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
			Category:    category,
			Notes:       strings.TrimSpace(li.Notes),
		})
	}

	if p := payload.PreloadedDrinks; p != nil && p.Total != 0 {
		result.PreloadedDrinks = &models.PreloadedDrinks{
			Quantity:       p.Quantity,
			PricePerPerson: p.PricePerPerson,
			Total:          p.Total,
		}
	}

	return result, nil
}

func normalizeTier(tier string) string {
	t := strings.ToUpper(strings.TrimSpace(tier))
	t = strings.NewReplacer(" ", "_", "-", "_").Replace(t)
	switch t {
	case models.PackageFrontNine, models.PackageBackNine, models.PackageFullCourse:
		return t
	default:
		return ""
	}
}

// extractJSON pulls the first JSON object out of a model response
func extractJSON(content string) string {
	if start := strings.Index(content, "```json"); start >= 0 {
		body := content[start+len("```json"):]
		if end := strings.Index(body, "```"); end >= 0 {
			return strings.TrimSpace(body[:end])
		}
	}

	start := strings.Index(content, "{")
	if start < 0 {
		return ""
	}
	end := findJSONEnd(content, start)
	if end < 0 {
		return ""
	}
	return content[start:end]
}

// findJSONEnd finds the end of the JSON object starting at start
func findJSONEnd(content string, start int) int {
	if start < 0 || start >= len(content) || content[start] != '{' {
		return -1
	}

	depth := 0
	inString := false
	escapeNext := false

	for i := start; i < len(content); i++ {
		ch := content[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if ch == '\\' {
			escapeNext = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return -1
}
