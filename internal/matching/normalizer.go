// Package matching reconciles vendor product names against a reference list.
//
// Names are normalized into lower-case space-separated tokens, tokens are
// compared with a small plural/synonym/substring heuristic, and candidates are
// scored against every reference entry. An explicit mapping table and exact
// normalized matches always take precedence over the fuzzy score.
package matching

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	leadingArticle  = regexp.MustCompile(`^(the|a|an)\s+`)
	trailingArticle = regexp.MustCompile(`\s+(the|a|an)$`)
)

// Normalize canonicalizes a product name for comparison
func Normalize(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = leadingArticle.ReplaceAllString(s, "")
	s = trailingArticle.ReplaceAllString(s, "")

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// Tokenize normalizes name and splits it into words, dropping single-character tokens
func Tokenize(name string) []string {
	return tokens(Normalize(name))
}

func tokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			out = append(out, f)
		}
	}
	return out
}
