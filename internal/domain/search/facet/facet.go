// Package facet models the filterable dimensions of a search and derives the
// Elasticsearch filter fragments for their current selection.
package facet

import (
	"errors"
	"strings"

	"github.com/olivere/elastic/v7"
)

// DefaultSize is the number of buckets requested for a list facet.
const DefaultSize = 10

// Kind names a filter variant.
type Kind string

// Filter kinds.
const (
	KindList   Kind = "list"
	KindInput  Kind = "input"
	KindExists Kind = "exists"
	KindRange  Kind = "range"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == KindList || k == KindInput || k == KindExists || k == KindRange
}

// Order is the bucket order of a list facet.
type Order string

// Bucket orders.
const (
	ByCount Order = "bycount"
	ByValue Order = "byvalue"
)

// Filter is the selection state of a facet: List, Input, Exists or Range.
type Filter interface {
	Kind() Kind
	active() bool
}

// List selects keyword values. Exclusive selections must all match (AND),
// otherwise any of them may (OR).
type List struct {
	Values    []string
	Exclusive bool
	Order     Order
	Size      int
}

// Input holds a free-text value. It produces no filter fragment.
type Input struct {
	Value string
}

// Exists restricts hits to documents having the field when enabled.
type Exists struct {
	Enabled bool
}

// Range holds lower and upper bounds. It produces no filter fragment.
type Range struct {
	From string
	To   string
}

func (List) Kind() Kind   { return KindList }
func (Input) Kind() Kind  { return KindInput }
func (Exists) Kind() Kind { return KindExists }
func (Range) Kind() Kind  { return KindRange }

func (l List) active() bool   { return len(l.Values) > 0 }
func (i Input) active() bool  { return i.Value != "" }
func (e Exists) active() bool { return e.Enabled }
func (r Range) active() bool  { return r.From != "" || r.To != "" }

// Facet is one filterable field. A child facet addresses a nested sub-field
// of Name.
type Facet struct {
	id     string
	name   string
	child  string
	filter Filter
}

// New validates and creates a root facet.
func New(id, name string, filter Filter) (Facet, error) {
	return NewChild(id, name, "", filter)
}

// NewChild validates and creates a facet on the nested field child of name.
// An empty child creates a root facet.
func NewChild(id, name, child string, filter Filter) (Facet, error) {
	if id == "" {
		return Facet{}, errors.New("facet id is required")
	}
	if name == "" {
		return Facet{}, errors.New("facet name is required")
	}
	if filter == nil {
		return Facet{}, errors.New("facet filter is required")
	}
	return Facet{id: id, name: name, child: child, filter: normalize(filter)}, nil
}

func normalize(f Filter) Filter {
	l, ok := f.(List)
	if !ok {
		return f
	}
	if len(l.Values) > 0 {
		l.Values = append([]string(nil), l.Values...)
	} else {
		l.Values = nil
	}
	if l.Size <= 0 {
		l.Size = DefaultSize
	}
	if l.Order != ByValue {
		l.Order = ByCount
	}
	return l
}

// ID returns the unique facet identifier.
func (f Facet) ID() string { return f.id }

// Name returns the source field name.
func (f Facet) Name() string { return f.name }

// Child returns the nested field name, empty for root facets.
func (f Facet) Child() string { return f.child }

// IsChild reports whether the facet addresses a nested field.
func (f Facet) IsChild() bool { return f.child != "" }

// Filter returns the selection state.
func (f Facet) Filter() Filter { return f.filter }

// Kind returns the filter kind.
func (f Facet) Kind() Kind { return f.filter.Kind() }

// Active reports whether the facet has a selection.
func (f Facet) Active() bool { return f.filter.active() }

// Key is the keyword field that filters and bucket aggregations address.
// Child facets live in the nested children documents of their parent field.
func (f Facet) Key() string {
	if f.IsChild() {
		return f.NestedPath() + "." + f.child + ".value.keyword"
	}
	return f.name + ".value.keyword"
}

// NestedPath is the nested document path of a child facet.
func (f Facet) NestedPath() string {
	return f.name + ".children"
}

// WithFilter returns a copy of the facet with another selection state.
func (f Facet) WithFilter(filter Filter) Facet {
	if filter != nil {
		f.filter = normalize(filter)
	}
	return f
}

// Select returns a copy of the facet with values applied to its filter kind.
// List facets take all values; Input takes the first; Exists is enabled by
// any value other than "" or "false"; Range takes from and to.
func (f Facet) Select(values []string) Facet {
	first := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}

	switch flt := f.filter.(type) {
	case List:
		flt.Values = values
		return f.WithFilter(flt)
	case Input:
		flt.Value = first(0)
		return f.WithFilter(flt)
	case Exists:
		v := strings.ToLower(first(0))
		flt.Enabled = v != "" && v != "false"
		return f.WithFilter(flt)
	case Range:
		flt.From, flt.To = first(0), first(1)
		return f.WithFilter(flt)
	}
	return f
}

// Fragments derives the filter fragments of the facet. Exclusive lists yield
// one term query per value, meant to be flattened into a bool must. Exists
// facets always yield their fragment, even when not enabled, so their own
// aggregation can count matching documents. Input and range facets yield none.
// Child facet queries are wrapped in a nested query on the children path.
func (f Facet) Fragments() []elastic.Query {
	key := f.Key()

	switch flt := f.filter.(type) {
	case List:
		if len(flt.Values) == 0 {
			return nil
		}
		if flt.Exclusive {
			qs := make([]elastic.Query, 0, len(flt.Values))
			for _, v := range flt.Values {
				qs = append(qs, f.scoped(elastic.NewTermQuery(key, v)))
			}
			return qs
		}
		if len(flt.Values) == 1 {
			return []elastic.Query{f.scoped(elastic.NewTermQuery(key, flt.Values[0]))}
		}
		should := elastic.NewBoolQuery()
		for _, v := range flt.Values {
			should.Should(f.scoped(elastic.NewTermQuery(key, v)))
		}
		return []elastic.Query{should}
	case Exists:
		return []elastic.Query{f.scoped(elastic.NewExistsQuery(key))}
	case Input, Range:
		return nil
	}
	return nil
}

func (f Facet) scoped(q elastic.Query) elastic.Query {
	if !f.IsChild() {
		return q
	}
	return elastic.NewNestedQuery(f.NestedPath(), q)
}
