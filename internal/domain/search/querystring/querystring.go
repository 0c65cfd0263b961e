// Package querystring sanitizes free-text Lucene queries before they are sent
// to a query_string clause. Plain terms are augmented with prefix wildcards
// and fuzzy alternatives to improve recall; input that does not parse is
// escaped instead.
package querystring

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ebrains-kg/kgsearch/internal/domain/search/lucene"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/tweaking"
)

// Outcome describes what Analyze did to the query.
type Outcome string

// Analyze outcomes.
const (
	Augmented    Outcome = "augmented"
	Unchanged    Outcome = "unchanged"
	TooManyTerms Outcome = "too_many_terms"
	Escaped      Outcome = "escaped"
	Empty        Outcome = "empty"
)

// Term is a query term that survived filtering, with the augmentations
// applied to it.
type Term struct {
	Value    string `json:"value"`
	Wildcard bool   `json:"wildcard"`
	Fuzzy    bool   `json:"fuzzy"`
}

// Result is the outcome of Analyze.
type Result struct {
	Query   string  `json:"query"`
	Outcome Outcome `json:"outcome"`
	Terms   []Term  `json:"terms,omitempty"`
}

var (
	whitespace = regexp.MustCompile(`\s+`)

	danglingOperators = []*regexp.Regexp{
		regexp.MustCompile(`^\s*&&\s*(.*)$`),
		regexp.MustCompile(`^\s*\|\|\s*(.*)$`),
		regexp.MustCompile(`^(.*?)\s*&&\s*$`),
		regexp.MustCompile(`^(.*?)\s*\|\|\s*$`),
	}

	operators = []struct {
		re *regexp.Regexp
		op string
	}{
		{regexp.MustCompile(`(?i)([ "\[\]{}()])AND([ "\[\]{}()])`), "AND"},
		{regexp.MustCompile(`(?i)([ "\[\]{}()])OR([ "\[\]{}()])`), "OR"},
		{regexp.MustCompile(`(?i)([ "\[\]{}()])NOT([ "\[\]{}()])`), "NOT"},
	}

	stopWords = map[string]struct{}{
		"a": {}, "above": {}, "all": {}, "an": {}, "are": {}, "as": {}, "any": {},
		"because": {}, "below": {}, "besides": {}, "but": {}, "by": {}, "eg": {},
		"either": {}, "for": {}, "hence": {}, "how": {}, "which": {}, "where": {},
		"who": {}, "ie": {}, "in": {}, "instead": {}, "is": {}, "none": {}, "of": {},
		"one": {}, "other": {}, "over": {}, "same": {}, "that": {}, "the": {},
		"then": {}, "thereby": {}, "therefore": {}, "this": {}, "though": {},
		"thus": {}, "to": {}, "under": {}, "until": {}, "when": {}, "why": {},
	}
)

// Sanitize returns the query to submit for raw. It never fails.
func Sanitize(raw string, cfg tweaking.Config) string {
	return Analyze(raw, cfg).Query
}

// Analyze normalizes raw, then either augments its plain terms or, when raw
// is not a valid Lucene query, escapes its special characters. The result is
// a pure function of raw and cfg.
func Analyze(raw string, cfg tweaking.Config) Result {
	str := normalize(raw)
	if str == "" {
		return Result{Query: str, Outcome: Empty}
	}

	tree, err := lucene.Parse(str)
	if err != nil {
		return Result{Query: escape(str), Outcome: Escaped}
	}

	terms := lucene.Terms(tree)
	str, kept := filterTerms(str, terms, cfg)
	if len(terms) > cfg.MaxTermsTrigger {
		return Result{Query: str, Outcome: TooManyTerms}
	}

	wildcardBudget := cfg.Wildcard.Budget(len(terms))
	fuzzyBudget := cfg.Fuzzy.Budget(len(terms))

	res := Result{Outcome: Unchanged}
	for idx, t := range kept {
		n := utf8.RuneCountInString(t)
		wildcard := len(terms) == 1 || (idx < wildcardBudget && n >= cfg.Wildcard.MinChars)
		fuzzy := idx < fuzzyBudget && n >= cfg.Fuzzy.MinChars
		if !wildcard && !fuzzy {
			continue
		}
		str = augment(str, t, wildcard, fuzzy)
		res.Terms = append(res.Terms, Term{Value: t, Wildcard: wildcard, Fuzzy: fuzzy})
		res.Outcome = Augmented
	}
	res.Query = str
	return res
}

func normalize(raw string) string {
	str := trimOperators(whitespace.ReplaceAllString(strings.TrimSpace(raw), " "))
	for _, o := range operators {
		str = o.re.ReplaceAllString(str, "${1}"+o.op+"${2}")
	}
	return str
}

// trimOperators strips dangling && and || from both ends until none is left.
func trimOperators(str string) string {
	for {
		res := str
		for _, re := range danglingOperators {
			res = re.ReplaceAllString(res, "${1}")
		}
		res = strings.TrimSpace(res)
		if res == str {
			return res
		}
		str = res
	}
}

// filterTerms selects the terms to augment. Unless there is a single term,
// short terms, dotted paths and stop words are dropped. Terms holding special
// characters are escaped in str and dropped, and so are terms the user
// quoted.
func filterTerms(str string, terms []string, cfg tweaking.Config) (string, []string) {
	candidates := make([]string, 0, len(terms))
	for _, t := range terms {
		if len(terms) > 1 && !eligible(t, cfg) {
			continue
		}
		if specialChars.MatchString(t) {
			str = escapeTerm(str, t)
			continue
		}
		candidates = append(candidates, t)
	}

	lower := strings.ToLower(str)
	kept := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if strings.Contains(lower, `"`+t+`"`) {
			continue
		}
		kept = append(kept, t)
	}
	return str, kept
}

func eligible(t string, cfg tweaking.Config) bool {
	n := utf8.RuneCountInString(t)
	if n < cfg.Wildcard.MinChars && n < cfg.Fuzzy.MinChars {
		return false
	}
	if strings.Contains(t, ".") {
		return false
	}
	_, stop := stopWords[t]
	return !stop
}
