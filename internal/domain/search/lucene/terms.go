package lucene

import (
	"regexp"
	"strings"
	"unicode"
)

// numeric matches what a JavaScript Number() conversion accepts, which is
// what the query fields are indexed against.
var numeric = regexp.MustCompile(
	`^(?:[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?|0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+|[+-]?Infinity)$`,
)

// Terms walks the tree depth-first, left to right, and returns the lowercased
// plain terms: not numeric, not already ending in a wildcard, free of
// whitespace and without boost, similarity or proximity. Duplicates are kept.
func Terms(e Expr) []string {
	var terms []string
	collectTerms(e, &terms)
	return terms
}

func collectTerms(e Expr, terms *[]string) {
	switch n := e.(type) {
	case *BinaryExpr:
		if n == nil {
			return
		}
		collectTerms(n.Left, terms)
		collectTerms(n.Right, terms)
	case *FieldExpr:
		if n == nil || !isPlainTerm(n) {
			return
		}
		*terms = append(*terms, strings.ToLower(n.Term))
	case *RangeExpr, nil:
	}
}

func isPlainTerm(f *FieldExpr) bool {
	if f.Term == "" || f.HasModifier() {
		return false
	}
	if numeric.MatchString(f.Term) {
		return false
	}
	if strings.HasSuffix(f.Term, "*") || strings.HasSuffix(f.Term, "?") {
		return false
	}
	return strings.IndexFunc(f.Term, unicode.IsSpace) < 0
}
