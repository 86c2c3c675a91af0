package matching

import (
	"strings"
	"unicode/utf8"
)

// variantIndex is a symmetric lookup built from a SynonymTable
type variantIndex map[string]map[string]struct{}

func newVariantIndex(table SynonymTable) variantIndex {
	idx := make(variantIndex, len(table))
	add := func(a, b string) {
		if idx[a] == nil {
			idx[a] = make(map[string]struct{})
		}
		idx[a][b] = struct{}{}
	}
	for canonical, variants := range table {
		key := strings.ToLower(canonical)
		for _, v := range variants {
			v = strings.ToLower(v)
			add(key, v)
			add(v, key)
		}
	}
	return idx
}

func (idx variantIndex) related(a, b string) bool {
	_, ok := idx[a][b]
	return ok
}

// stripPlural removes a single trailing "s"
func stripPlural(w string) string {
	return strings.TrimSuffix(w, "s")
}

// Equivalent reports whether two lower-cased tokens should be treated as the same word.
//
// Rules are checked in order: identical, equal after stripping a trailing "s"
// from either or both, listed together in the synonym table, or (when both are
// longer than MinSubstringLen) one contains the other.
//
// The plural and containment rules are deliberately crude and will pair some
// unrelated words ("pas"/"pa", "corn"/"popcorn").
func (m *Matcher) Equivalent(a, b string) bool {
	if a == b {
		return true
	}

	sa, sb := stripPlural(a), stripPlural(b)
	if sa == b || a == sb || sa == sb {
		return true
	}

	if m.variants.related(a, b) {
		return true
	}

	min := m.cfg.MinSubstringLen
	if utf8.RuneCountInString(a) > min && utf8.RuneCountInString(b) > min {
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return true
		}
	}

	return false
}
