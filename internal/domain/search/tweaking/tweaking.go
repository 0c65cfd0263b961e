// Package tweaking holds the thresholds that control wildcard and fuzzy
// augmentation of query-string terms.
package tweaking

import "fmt"

// All applies an augmentation to every term. None disables it.
const (
	All  = -1
	None = 0
)

// Default thresholds.
const (
	DefaultWildcardMaxTerms = 2
	DefaultWildcardMinChars = 3
	DefaultFuzzyMaxTerms    = 3
	DefaultFuzzyMinChars    = 4
	DefaultMaxTermsTrigger  = 4
)

// Rule limits one augmentation (wildcard or fuzzy) to the first MaxTerms
// terms having at least MinChars characters.
type Rule struct {
	MaxTerms int `yaml:"max_terms" json:"max_terms"`
	MinChars int `yaml:"min_chars" json:"min_chars"`
}

// Budget resolves how many leading terms the rule may touch out of total.
// Negative MaxTerms means every term; positive values are clamped to total.
func (r Rule) Budget(total int) int {
	if r.MaxTerms < 0 || total < r.MaxTerms {
		return total
	}
	return r.MaxTerms
}

// Config is the full query tweaking configuration.
type Config struct {
	Wildcard        Rule `yaml:"wildcard" json:"wildcard"`
	Fuzzy           Rule `yaml:"fuzzy_search" json:"fuzzy_search"`
	MaxTermsTrigger int  `yaml:"max_terms_trigger" json:"max_terms_trigger"`
}

// Default returns the stock configuration: wildcard on the first two terms of
// three chars or more, fuzzy on the first three terms of four chars or more,
// and no augmentation at all past four terms.
func Default() Config {
	return Config{
		Wildcard:        Rule{MaxTerms: DefaultWildcardMaxTerms, MinChars: DefaultWildcardMinChars},
		Fuzzy:           Rule{MaxTerms: DefaultFuzzyMaxTerms, MinChars: DefaultFuzzyMinChars},
		MaxTermsTrigger: DefaultMaxTermsTrigger,
	}
}

// Validate rejects values below -1 and negative minimum lengths.
func (c Config) Validate() error {
	if c.Wildcard.MaxTerms < All {
		return fmt.Errorf("wildcard.max_terms must be >= -1, got %d", c.Wildcard.MaxTerms)
	}
	if c.Fuzzy.MaxTerms < All {
		return fmt.Errorf("fuzzy_search.max_terms must be >= -1, got %d", c.Fuzzy.MaxTerms)
	}
	if c.Wildcard.MinChars < 0 {
		return fmt.Errorf("wildcard.min_chars must be >= 0, got %d", c.Wildcard.MinChars)
	}
	if c.Fuzzy.MinChars < 0 {
		return fmt.Errorf("fuzzy_search.min_chars must be >= 0, got %d", c.Fuzzy.MinChars)
	}
	if c.MaxTermsTrigger < 0 {
		return fmt.Errorf("max_terms_trigger must be >= 0, got %d", c.MaxTermsTrigger)
	}
	return nil
}
