package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFileExtension(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"prices.xlsx", false},
		{"PRICES.CSV", false},
		{"prices.tsv", false},
		{"invoice.pdf", true},
		{"noext", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileExtension(tt.name, SpreadsheetExtensions)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Chicken Wings", SanitizeString("  Chicken\x00 Wings\n"))
	assert.Equal(t, []string{"a", "b"}, SanitizeStrings([]string{" a ", "\t", "b"}))
}
