package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SpreadsheetExtensions are the accepted vendor, reference and mapping sheet formats
var SpreadsheetExtensions = []string{".xlsx", ".xlsm", ".csv", ".tsv"}

// ValidateFileExtension checks that name ends in one of the allowed extensions (case-insensitive)
func ValidateFileExtension(name string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return fmt.Errorf("file %q has no extension", name)
	}
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("file %q has unsupported extension %s (allowed: %s)", name, ext, strings.Join(allowed, ", "))
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// SanitizeStrings applies SanitizeString to each value and drops empty results
func SanitizeStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := SanitizeString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
