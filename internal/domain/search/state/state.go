// Package state holds the immutable search selection a payload is built from.
package state

import (
	"fmt"

	"github.com/ebrains-kg/kgsearch/internal/domain"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/sort"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/tweaking"
)

// Paging limits.
const (
	DefaultSize = 20
	// MaxWindow is the deepest hit reachable with from+size.
	MaxWindow = 10000
	// TypeFacetID is reserved for the synthetic type aggregation.
	TypeFacetID = "facet_type"
)

// BoostedType raises the score of hits of one type.
type BoostedType struct {
	Name  string  `yaml:"name" json:"name"`
	Boost float64 `yaml:"boost" json:"boost"`
}

// Params are the raw inputs of New.
type Params struct {
	QueryString  string
	Tweaking     tweaking.Config
	SelectedType string
	Facets       []facet.Facet
	Sort         []sort.Spec
	From         int
	Size         int
	QueryFields  map[string][]string
	BoostedTypes []BoostedType
	// SharedIndex marks an index holding several types, so the selected
	// type must be filtered on.
	SharedIndex bool
}

// State is a validated search selection. It never shares memory with the
// Params it was built from.
type State struct {
	queryString  string
	tweaking     tweaking.Config
	selectedType string
	facets       []facet.Facet
	sort         []sort.Spec
	from         int
	size         int
	queryFields  map[string][]string
	boostedTypes []BoostedType
	sharedIndex  bool
}

// New validates p and returns a deep copy of it.
// Defaults: size=20.
func New(p Params) (State, error) {
	if p.From < 0 {
		return State{}, fmt.Errorf("%w: from must be >= 0", domain.ErrInvalidState)
	}
	size := p.Size
	if size == 0 {
		size = DefaultSize
	}
	if size < 0 {
		return State{}, fmt.Errorf("%w: size must be > 0", domain.ErrInvalidState)
	}
	if p.From+size > MaxWindow {
		return State{}, fmt.Errorf("%w: from + size must be <= %d", domain.ErrInvalidState, MaxWindow)
	}
	if err := p.Tweaking.Validate(); err != nil {
		return State{}, fmt.Errorf("%w: %w", domain.ErrInvalidState, err)
	}
	if p.SelectedType != "" && len(p.QueryFields) > 0 {
		if _, ok := p.QueryFields[p.SelectedType]; !ok {
			return State{}, fmt.Errorf("%w: %q", domain.ErrUnknownType, p.SelectedType)
		}
	}

	seen := make(map[string]struct{}, len(p.Facets))
	for _, f := range p.Facets {
		if f.ID() == TypeFacetID {
			return State{}, fmt.Errorf("%w: facet id %q is reserved", domain.ErrInvalidState, TypeFacetID)
		}
		if _, dup := seen[f.ID()]; dup {
			return State{}, fmt.Errorf("%w: duplicate facet id %q", domain.ErrInvalidState, f.ID())
		}
		seen[f.ID()] = struct{}{}
	}
	for i, s := range p.Sort {
		if err := s.Validate(); err != nil {
			return State{}, fmt.Errorf("%w: sort[%d]: %w", domain.ErrInvalidState, i, err)
		}
	}

	return State{
		queryString:  p.QueryString,
		tweaking:     p.Tweaking,
		selectedType: p.SelectedType,
		facets:       copyFacets(p.Facets),
		sort:         clone(p.Sort),
		from:         p.From,
		size:         size,
		queryFields:  copyFields(p.QueryFields),
		boostedTypes: clone(p.BoostedTypes),
		sharedIndex:  p.SharedIndex,
	}, nil
}

// QueryString returns the raw free text.
func (s State) QueryString() string { return s.queryString }

// Tweaking returns the term augmentation thresholds.
func (s State) Tweaking() tweaking.Config { return s.tweaking }

// SelectedType returns the chosen result type, empty for all types.
func (s State) SelectedType() string { return s.selectedType }

// SharedIndex reports whether the searched index holds more than the
// selected type.
func (s State) SharedIndex() bool { return s.sharedIndex }

// Facets returns a copy of the ordered facets.
func (s State) Facets() []facet.Facet { return copyFacets(s.facets) }

// Sort returns a copy of the sort specs, nil for relevance ordering.
func (s State) Sort() []sort.Spec { return clone(s.sort) }

// From returns the pagination offset.
func (s State) From() int { return s.from }

// Size returns the page size.
func (s State) Size() int { return s.size }

// Fields returns a copy of the boosted query fields of the selected type.
// Unknown or empty types have no fields.
func (s State) Fields() []string {
	return clone(s.queryFields[s.selectedType])
}

// BoostedTypes returns a copy of the type boosts.
func (s State) BoostedTypes() []BoostedType { return clone(s.boostedTypes) }

func clone[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return append([]T(nil), in...)
}

func copyFacets(in []facet.Facet) []facet.Facet {
	if len(in) == 0 {
		return nil
	}
	out := make([]facet.Facet, len(in))
	for i, f := range in {
		// WithFilter copies list values.
		out[i] = f.WithFilter(f.Filter())
	}
	return out
}

func copyFields(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = clone(v)
	}
	return out
}
