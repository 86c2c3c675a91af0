package matching

import (
	"strings"

	"go.uber.org/zap"
)

// Method records how a candidate was resolved
type Method string

// Resolution methods
const (
	MethodMapping Method = "mapping"
	MethodExact   Method = "exact"
	MethodFuzzy   Method = "fuzzy"
	MethodNone    Method = "none"
)

// Mapping maps a normalized invoice-side name to a reference product name
type Mapping map[string]string

// NewMapping builds a Mapping from raw invoice-name to reference-name pairs.
// Keys are normalized; empty keys or values are skipped and the first entry
// for a key wins.
func NewMapping(pairs map[string]string) Mapping {
	m := make(Mapping, len(pairs))
	for from, to := range pairs {
		m.Add(from, to)
	}
	return m
}

// Add records a single mapping entry unless the normalized key is already present
func (m Mapping) Add(from, to string) bool {
	key := Normalize(from)
	to = strings.TrimSpace(to)
	if key == "" || to == "" {
		return false
	}
	if _, exists := m[key]; exists {
		return false
	}
	m[key] = to
	return true
}

// Lookup returns the mapped reference name for a raw candidate name
func (m Mapping) Lookup(name string) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	to, ok := m[Normalize(name)]
	return to, ok
}

type reference struct {
	name       string
	normalized string
	tokens     []string
}

func newReference(name string) reference {
	norm := Normalize(name)
	return reference{name: name, normalized: norm, tokens: tokens(norm)}
}

// ReferenceSet is a reference product list with precomputed normalized forms.
// It is read-only after construction and safe for concurrent use.
type ReferenceSet struct {
	entries []reference
}

// NewReferenceSet indexes the reference names in their original order
func NewReferenceSet(names []string) *ReferenceSet {
	rs := &ReferenceSet{entries: make([]reference, 0, len(names))}
	for _, n := range names {
		rs.entries = append(rs.entries, newReference(n))
	}
	return rs
}

// Len returns the number of reference entries
func (rs *ReferenceSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.entries)
}

// Names returns the reference names in order
func (rs *ReferenceSet) Names() []string {
	out := make([]string, 0, rs.Len())
	if rs == nil {
		return out
	}
	for _, e := range rs.entries {
		out = append(out, e.name)
	}
	return out
}

// Result describes the outcome of matching one candidate
type Result struct {
	Candidate string  `json:"candidate"`
	Matched   bool    `json:"matched"`
	Reference string  `json:"reference,omitempty"`
	Method    Method  `json:"method"`
	Score     float64 `json:"score"`
}

// Matcher scores candidate product names against reference lists
type Matcher struct {
	cfg      Config
	variants variantIndex
	logger   *zap.Logger
}

// NewMatcher creates a Matcher. A nil logger disables logging.
func NewMatcher(cfg Config, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		cfg:      cfg,
		variants: newVariantIndex(cfg.Synonyms),
		logger:   logger,
	}
}

// Config returns the matcher configuration
func (m *Matcher) Config() Config {
	return m.cfg
}

// Match resolves candidate against references and returns the matched reference name
func (m *Matcher) Match(candidate string, references []string, mapping Mapping) (string, bool) {
	res := m.Resolve(candidate, NewReferenceSet(references), mapping)
	return res.Reference, res.Matched
}

// Resolve matches candidate against an indexed reference set.
// Mapping entries win over exact matches, and exact matches win over fuzzy scoring.
func (m *Matcher) Resolve(candidate string, refs *ReferenceSet, mapping Mapping) Result {
	res := Result{Candidate: candidate, Method: MethodNone}

	norm := Normalize(candidate)
	if norm == "" {
		return res
	}

	if to, ok := mapping[norm]; ok {
		res.Matched = true
		res.Reference = to
		res.Method = MethodMapping
		res.Score = 100
		return res
	}

	if refs.Len() == 0 {
		return res
	}

	for _, e := range refs.entries {
		if e.normalized == norm {
			res.Matched = true
			res.Reference = e.name
			res.Method = MethodExact
			res.Score = 100
			return res
		}
	}

	candTokens := tokens(norm)
	best := -1
	bestScore := 0.0
	for i, e := range refs.entries {
		s := m.score(norm, candTokens, e)
		// strict comparison keeps the first entry on ties
		if best < 0 || s > bestScore {
			best = i
			bestScore = s
		}
	}

	res.Score = bestScore
	if bestScore >= m.cfg.Threshold {
		res.Matched = true
		res.Reference = refs.entries[best].name
		res.Method = MethodFuzzy
	}

	m.logger.Debug("Fuzzy match evaluated",
		zap.String("candidate", candidate),
		zap.String("best", refs.entries[best].name),
		zap.Float64("score", bestScore),
		zap.Bool("matched", res.Matched))

	return res
}

// Score returns the similarity of two raw names in [0,100]
func (m *Matcher) Score(candidate, reference string) float64 {
	norm := Normalize(candidate)
	return m.score(norm, tokens(norm), newReference(reference))
}

func (m *Matcher) score(norm string, candTokens []string, ref reference) float64 {
	if len(candTokens) == 0 || len(ref.tokens) == 0 {
		return 0
	}
	if norm == ref.normalized {
		return 100
	}

	matches := 0
	for _, ct := range candTokens {
		for _, rt := range ref.tokens {
			if m.Equivalent(ct, rt) {
				matches++
			}
		}
	}

	longest := len(candTokens)
	if len(ref.tokens) > longest {
		longest = len(ref.tokens)
	}
	score := float64(matches) / float64(longest) * m.cfg.WordWeight

	if strings.Contains(norm, ref.normalized) || strings.Contains(ref.normalized, norm) {
		score += m.cfg.SubstringBonus
	}

	if score > 100 {
		score = 100
	}
	return score
}
