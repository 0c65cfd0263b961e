// Package sort describes result ordering.
package sort

import (
	"fmt"

	"github.com/olivere/elastic/v7"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Missing value placements.
const (
	MissingFirst = "_first"
	MissingLast  = "_last"
)

// Score sorts by relevance.
const Score = "_score"

// Spec orders hits by one field.
type Spec struct {
	Field   string `yaml:"field" json:"field"`
	Order   Order  `yaml:"order" json:"order"`
	Missing string `yaml:"missing,omitempty" json:"missing,omitempty"`
}

// Validate checks the field and direction. An empty order means ascending.
func (s Spec) Validate() error {
	if s.Field == "" {
		return fmt.Errorf("sort field is required")
	}
	if s.Order != "" && s.Order != Asc && s.Order != Desc {
		return fmt.Errorf("sort order must be %q or %q, got %q", Asc, Desc, s.Order)
	}
	return nil
}

// Sorter converts the spec to an Elasticsearch field sort.
func (s Spec) Sorter() elastic.Sorter {
	fs := elastic.NewFieldSort(s.Field).Order(s.Order != Desc)
	if s.Missing != "" {
		fs = fs.Missing(s.Missing)
	}
	return fs
}

// Relevance is the default ordering: best score first, newest release
// breaking ties, documents without a release date last.
func Relevance() []Spec {
	return []Spec{
		{Field: Score, Order: Desc},
		{Field: "first_release.value", Order: Desc, Missing: MissingLast},
	}
}

// ByField orders ascending on the keyword value of field.
func ByField(field string) Spec {
	return Spec{Field: field + ".value.keyword", Order: Asc}
}
