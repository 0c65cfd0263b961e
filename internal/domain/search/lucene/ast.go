// Package lucene parses Lucene-style query strings into an expression tree.
//
// The grammar covers boolean operators (AND, OR, NOT, &&, ||), implicit
// conjunction, parenthesised groups, field:term and field:(group) pairs,
// +/- prefixes, quoted phrases with proximity, fuzzy similarity, boosts and
// [min TO max] ranges.
package lucene

import (
	"fmt"
	"strconv"
	"strings"
)

// Implicit is the field of an unqualified term and the operator joining two
// expressions with no explicit operator between them.
const Implicit = "<implicit>"

// Expr is a node of the parsed tree: *BinaryExpr, *FieldExpr or *RangeExpr.
type Expr interface {
	expr()
}

// BinaryExpr joins two expressions. Left is nil for a leading operator, Right
// is nil when nothing follows.
type BinaryExpr struct {
	Left     Expr
	Operator string
	Right    Expr
	Field    string
}

// FieldExpr is a single term, optionally qualified by a field.
type FieldExpr struct {
	Field      string
	Term       string
	Quoted     bool
	Prefix     string
	Boost      *float64
	Similarity *float64
	Proximity  *int
}

// RangeExpr is a [min TO max] or {min TO max} range on a field.
type RangeExpr struct {
	Field        string
	Min          string
	Max          string
	InclusiveMin bool
	InclusiveMax bool
}

func (*BinaryExpr) expr() {}
func (*FieldExpr) expr() {}
func (*RangeExpr) expr() {}

// HasModifier reports whether the term carries a non-zero boost, similarity
// or proximity.
func (f *FieldExpr) HasModifier() bool {
	return nonZero(f.Boost) || nonZero(f.Similarity) || (f.Proximity != nil && *f.Proximity != 0)
}

func nonZero(p *float64) bool {
	return p != nil && *p != 0
}

// Parse parses s. An empty or blank string yields a nil expression and no
// error. Only the first top-level expression is returned when the input
// holds several that could not be chained.
func Parse(s string) (Expr, error) {
	q, err := parser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	if len(q.Nodes) == 0 {
		return nil, nil
	}
	return q.Nodes[0].toExpr()
}

func (n *node) toExpr() (Expr, error) {
	if n.Left == nil {
		right, err := optionalExpr(n.Lead)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Operator: n.LeadOp, Right: right}, nil
	}

	left, err := n.Left.toExpr()
	if err != nil {
		return nil, err
	}
	if len(n.Ops) == 0 && n.Right == nil {
		return left, nil
	}

	right, err := optionalExpr(n.Right)
	if err != nil {
		return nil, err
	}
	op := Implicit
	if len(n.Ops) > 0 {
		op = strings.Join(n.Ops, " ")
	}
	return &BinaryExpr{Left: left, Operator: op, Right: right}, nil
}

func optionalExpr(n *node) (Expr, error) {
	if n == nil {
		return nil, nil
	}
	return n.toExpr()
}

func (g *group) toExpr() (Expr, error) {
	if g.Paren != nil {
		return g.Paren.toExpr()
	}
	return g.Field.toExpr()
}

func (p *paren) toExpr() (Expr, error) {
	return p.Nodes[0].toExpr()
}

func (f *fieldNode) toExpr() (Expr, error) {
	field := Implicit
	if f.Name != nil {
		field = *f.Name
	}

	switch {
	case f.Range != nil:
		return &RangeExpr{
			Field:        field,
			Min:          unquote(f.Range.Min),
			Max:          unquote(f.Range.Max),
			InclusiveMin: f.Range.Open == "[",
			InclusiveMax: f.Range.Close == "]",
		}, nil
	case f.Paren != nil:
		inner, err := f.Paren.toExpr()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: inner, Field: field}, nil
	default:
		return f.Term.toExpr(field)
	}
}

func (t *termNode) toExpr(field string) (*FieldExpr, error) {
	fe := &FieldExpr{Field: field}
	if t.Prefix != nil {
		fe.Prefix = *t.Prefix
	}

	if t.Quoted != nil {
		fe.Term = unquote(*t.Quoted)
		fe.Quoted = true
		if t.Proximity != nil {
			v, err := strconv.Atoi(strings.TrimPrefix(*t.Proximity, "~"))
			if err != nil {
				return nil, fmt.Errorf("proximity of %q: %w", fe.Term, err)
			}
			fe.Proximity = &v
		}
	} else {
		fe.Term = *t.Word
		if t.Fuzzy != nil {
			v := 0.5
			if raw := strings.TrimPrefix(*t.Fuzzy, "~"); raw != "" {
				parsed, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("similarity of %q: %w", fe.Term, err)
				}
				v = parsed
			}
			fe.Similarity = &v
		}
	}

	if t.Boost != nil {
		v, err := strconv.ParseFloat(strings.TrimPrefix(*t.Boost, "^"), 64)
		if err != nil {
			return nil, fmt.Errorf("boost of %q: %w", fe.Term, err)
		}
		fe.Boost = &v
	}
	return fe, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
