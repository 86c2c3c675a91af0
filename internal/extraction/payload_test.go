package extraction

import (
	"testing"

	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInvoice = `{
  "eventDetails": {"eventName": "Acme Holiday Party", "eventDate": "2024-12-13", "venue": "Downtown", "guestCount": 40, "packageTier": "Full Course", "invoiceNumber": "INV-1001"},
  "lineItems": [
    {"description": "Full Course Package", "quantity": 40, "unitPrice": 45, "total": 1800, "category": "FOOD", "notes": null},
    {"description": "Bowling lanes", "quantity": 4, "unitPrice": 60, "total": 240, "category": "bowling"},
    {"description": "Karaoke room", "quantity": 1, "unitPrice": 150, "total": 150, "category": "Karaoke"},
    {"description": "Room deposit", "quantity": 1, "unitPrice": 100, "total": 100, "category": "service fee"},
    {"description": "Valet", "quantity": 1, "unitPrice": 50, "total": 50, "category": "PARKING"}
  ],
  "preloadedDrinks": {"quantity": 40, "pricePerPerson": 15, "total": 600}
}`

func TestParseInvoiceResponse(t *testing.T) {
	result, err := ParseInvoiceResponse(sampleInvoice)
	require.NoError(t, err)

	assert.Equal(t, "Acme Holiday Party", result.EventDetails.EventName)
	assert.Equal(t, 40, result.EventDetails.GuestCount)
	assert.Equal(t, models.PackageFullCourse, result.EventDetails.PackageTier)
	assert.Equal(t, "INV-1001", result.EventDetails.InvoiceNumber)

	require.Len(t, result.LineItems, 5)
	assert.Equal(t, models.CategoryFood, result.LineItems[0].Category)
	assert.Equal(t, models.CategoryBowling, result.LineItems[1].Category)
	assert.Equal(t, models.CategoryKaraoke, result.LineItems[2].Category)
	assert.Equal(t, models.CategoryBookingFee, result.LineItems[3].Category)
	assert.Equal(t, models.Category("PARKING"), result.LineItems[4].Category)
	assert.Equal(t, []string{"PARKING"}, result.UnknownCategories)

	require.NotNil(t, result.PreloadedDrinks)
	assert.Equal(t, 600.0, result.PreloadedDrinks.Total)
	assert.Equal(t, 15.0, result.PreloadedDrinks.PricePerPerson)
}

func TestParseInvoiceResponse_Fenced(t *testing.T) {
	content := "Here is the data:\n```json\n" + sampleInvoice + "\n```\nLet me know if you need more."

	result, err := ParseInvoiceResponse(content)
	require.NoError(t, err)
	assert.Len(t, result.LineItems, 5)
}

func TestParseInvoiceResponse_Prose(t *testing.T) {
	content := `Sure! {"lineItems": [{"description": "Wings {hot}", "total": 12.5, "category": "FOOD"}]} Thanks.`

	result, err := ParseInvoiceResponse(content)
	require.NoError(t, err)
	require.Len(t, result.LineItems, 1)
	assert.Equal(t, "Wings {hot}", result.LineItems[0].Description)
	assert.Nil(t, result.PreloadedDrinks)
}

func TestParseInvoiceResponse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I could not read the invoice."},
		{"missing line items", `{"eventDetails": {}}`},
		{"total is a string", `{"lineItems": [{"description": "x", "total": "$12", "category": "FOOD"}]}`},
		{"missing category", `{"lineItems": [{"description": "x", "total": 12}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInvoiceResponse(tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidExtraction)
		})
	}
}

func TestParseInvoiceResponse_ZeroPreloadedIgnored(t *testing.T) {
	result, err := ParseInvoiceResponse(`{"lineItems": [], "preloadedDrinks": {"quantity": 0, "pricePerPerson": 0, "total": 0}}`)
	require.NoError(t, err)
	assert.Nil(t, result.PreloadedDrinks)
	assert.Empty(t, result.LineItems)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":"}"}`, extractJSON(`prefix {"a":"}"} suffix`))
	assert.Equal(t, "", extractJSON("no json here"))
	assert.Equal(t, "", extractJSON(`{"unterminated": true`))
}
