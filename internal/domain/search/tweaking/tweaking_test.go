package tweaking

import (
	"strings"
	"testing"
)

func TestRuleBudget(t *testing.T) {
	tests := []struct {
		name     string
		maxTerms int
		total    int
		want     int
	}{
		{"all", All, 5, 5},
		{"none", None, 5, 0},
		{"clamped", 3, 2, 2},
		{"below total", 2, 5, 2},
		{"equal", 4, 4, 4},
		{"no terms", All, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rule{MaxTerms: tt.maxTerms}.Budget(tt.total)
			if got != tt.want {
				t.Errorf("Budget(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Wildcard.MaxTerms != 2 || c.Wildcard.MinChars != 3 {
		t.Errorf("wildcard = %+v", c.Wildcard)
	}
	if c.Fuzzy.MaxTerms != 3 || c.Fuzzy.MinChars != 4 {
		t.Errorf("fuzzy = %+v", c.Fuzzy)
	}
	if c.MaxTermsTrigger != 4 {
		t.Errorf("MaxTermsTrigger = %d", c.MaxTermsTrigger)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"wildcard max", func(c *Config) { c.Wildcard.MaxTerms = -2 }, "wildcard.max_terms"},
		{"fuzzy max", func(c *Config) { c.Fuzzy.MaxTerms = -5 }, "fuzzy_search.max_terms"},
		{"wildcard min", func(c *Config) { c.Wildcard.MinChars = -1 }, "wildcard.min_chars"},
		{"fuzzy min", func(c *Config) { c.Fuzzy.MinChars = -1 }, "fuzzy_search.min_chars"},
		{"trigger", func(c *Config) { c.MaxTermsTrigger = -1 }, "max_terms_trigger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}
