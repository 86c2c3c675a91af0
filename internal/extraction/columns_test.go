package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFallbackColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Columns
	}{
		{
			name:    "typical vendor sheet",
			headers: []string{"Item #", "Description", "Unit Price", "Order Date"},
			want:    Columns{Product: "Description", Price: "Unit Price", Date: "Order Date", Source: SourceKeyword},
		},
		{
			name:    "product keyword preferred over name",
			headers: []string{"Vendor Name", "Product", "Cost", "Date"},
			want:    Columns{Product: "Product", Price: "Cost", Date: "Date", Source: SourceKeyword},
		},
		{
			name:    "case insensitive",
			headers: []string{"PRODUCT NAME", "PRICE", "ORDER"},
			want:    Columns{Product: "PRODUCT NAME", Price: "PRICE", Date: "ORDER", Source: SourceKeyword},
		},
		{
			name:    "header used for one role only",
			headers: []string{"Unit Cost", "Item"},
			want:    Columns{Product: "Item", Price: "Unit Cost", Source: SourceKeyword},
		},
		{
			name:    "nothing recognisable",
			headers: []string{"A", "B"},
			want:    Columns{Source: SourceKeyword},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackColumns(tt.headers))
		})
	}
}

func TestKeywordIdentifier(t *testing.T) {
	_, err := KeywordIdentifier{}.Identify(context.Background(), []string{"Qty", "Amount"}, nil)
	assert.ErrorIs(t, err, ErrNoProductColumn)

	cols, err := KeywordIdentifier{}.Identify(context.Background(), []string{"Product", "Price"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Product", cols.Product)
}

func TestOpenAIColumnIdentifier(t *testing.T) {
	headers := []string{"SKU", "Desc", "Each", "Invoice Dt"}
	samples := []map[string]string{{"SKU": "100", "Desc": "Wings", "Each": "12.00", "Invoice Dt": "2024-03-01"}}

	t.Run("uses model answer", func(t *testing.T) {
		client := &fakeChatClient{responses: []string{`{"productColumn": "Desc", "priceColumn": "each", "dateColumn": "Invoice Dt"}`}}
		identifier := NewOpenAIColumnIdentifier(client, DefaultPrompts(), fastRetry(1), "gpt-4o-mini", zap.NewNop())

		cols, err := identifier.Identify(context.Background(), headers, samples)
		require.NoError(t, err)
		assert.Equal(t, Columns{Product: "Desc", Price: "Each", Date: "Invoice Dt", Source: SourceModel}, cols)

		prompt := client.requests[0].Messages[1].Content
		assert.Contains(t, prompt, "- Desc")
		assert.Contains(t, prompt, `"Desc":"Wings"`)
	})

	t.Run("invented header falls back to keywords", func(t *testing.T) {
		client := &fakeChatClient{responses: []string{`{"productColumn": "Product Name", "priceColumn": "Price"}`}}
		identifier := NewOpenAIColumnIdentifier(client, DefaultPrompts(), fastRetry(1), "gpt-4o-mini", zap.NewNop())

		cols, err := identifier.Identify(context.Background(), []string{"Item", "Unit Price", "Date"}, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceKeyword, cols.Source)
		assert.Equal(t, "Item", cols.Product)
		assert.Equal(t, "Unit Price", cols.Price)
	})

	t.Run("API failure falls back to keywords", func(t *testing.T) {
		client := &fakeChatClient{errs: []error{errors.New("boom")}}
		identifier := NewOpenAIColumnIdentifier(client, DefaultPrompts(), fastRetry(1), "gpt-4o-mini", zap.NewNop())

		cols, err := identifier.Identify(context.Background(), []string{"Description", "Cost"}, nil)
		require.NoError(t, err)
		assert.Equal(t, Columns{Product: "Description", Price: "Cost", Source: SourceKeyword}, cols)
	})

	t.Run("no product column anywhere", func(t *testing.T) {
		client := &fakeChatClient{responses: []string{`{"productColumn": ""}`}}
		identifier := NewOpenAIColumnIdentifier(client, DefaultPrompts(), fastRetry(1), "gpt-4o-mini", zap.NewNop())

		_, err := identifier.Identify(context.Background(), []string{"Qty", "Amount"}, nil)
		assert.ErrorIs(t, err, ErrNoProductColumn)
	})
}
