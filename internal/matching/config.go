package matching

import "fmt"

// Default scoring parameters
const (
	DefaultThreshold       = 30.0
	DefaultWordWeight      = 80.0
	DefaultSubstringBonus  = 15.0
	DefaultMinSubstringLen = 3
)

// SynonymTable maps a canonical word to the alternate surface forms it is equivalent to
type SynonymTable map[string][]string

// DefaultSynonyms returns the built-in variant table.
// Regular plurals are already handled by trailing-"s" stripping, so the table
// only needs irregular forms and common menu spellings.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"wing":    {"wings", "wingz"},
		"tender":  {"tenders", "tendies"},
		"fry":     {"fries", "frys"},
		"patty":   {"patties"},
		"potato":  {"potatoes", "tater", "taters"},
		"tomato":  {"tomatoes"},
		"berry":   {"berries"},
		"cherry":  {"cherries"},
		"taco":    {"tacos"},
		"nacho":   {"nachos"},
		"slider":  {"sliders"},
		"chip":    {"chips", "crisps"},
		"cheese":  {"cheeses", "cheesy"},
		"soda":    {"sodas", "pop"},
		"burger":  {"burgers", "hamburger"},
		"pretzel": {"pretzels"},
		"dozen":   {"dz", "doz"},
	}
}

// Config carries every tunable of the matcher
type Config struct {
	// Threshold is the minimum fuzzy score accepted as a match
	Threshold float64
	// WordWeight scales the token match ratio
	WordWeight float64
	// SubstringBonus is added when one full normalized name contains the other
	SubstringBonus float64
	// MinSubstringLen: tokens must be longer than this to match by containment
	MinSubstringLen int
	Synonyms        SynonymTable
}

// DefaultConfig returns the standard matcher configuration
func DefaultConfig() Config {
	return Config{
		Threshold:       DefaultThreshold,
		WordWeight:      DefaultWordWeight,
		SubstringBonus:  DefaultSubstringBonus,
		MinSubstringLen: DefaultMinSubstringLen,
		Synonyms:        DefaultSynonyms(),
	}
}

// Validate checks the configuration ranges
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %.2f", c.Threshold)
	}
	if c.WordWeight < 0 || c.SubstringBonus < 0 {
		return fmt.Errorf("word weight and substring bonus must not be negative")
	}
	if c.MinSubstringLen < 0 {
		return fmt.Errorf("min substring length must not be negative, got %d", c.MinSubstringLen)
	}
	return nil
}
