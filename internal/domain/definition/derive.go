package definition

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/ebrains-kg/kgsearch/internal/domain"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/sort"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/state"
)

// RelevanceKey identifies the default sort option.
const RelevanceKey = "newestFirst"

// SortOption is a selectable result ordering.
type SortOption struct {
	Key     string      `json:"key"`
	Label   string      `json:"label"`
	Param   string      `json:"param"`
	Fields  []sort.Spec `json:"fields"`
	Default bool        `json:"default,omitempty"`
}

// FacetInfo describes a facet of a type for clients.
type FacetInfo struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Child     string      `json:"child,omitempty"`
	Label     string      `json:"label,omitempty"`
	Kind      facet.Kind  `json:"kind"`
	Order     facet.Order `json:"order,omitempty"`
	Exclusive bool        `json:"exclusive,omitempty"`
}

// TypesOrder maps every type having an order to it.
func (d *Definition) TypesOrder() map[string]int {
	out := make(map[string]int, len(d.Types))
	for _, t := range d.Types {
		if t.Order != nil {
			out[t.Name] = *t.Order
		}
	}
	return out
}

// OrderedTypes returns the type names sorted by order. Types without an order
// follow in definition order.
func (d *Definition) OrderedTypes() []string {
	types := slices.Clone(d.Types)
	slices.SortStableFunc(types, func(a, b Type) int {
		switch {
		case a.Order == nil && b.Order == nil:
			return 0
		case a.Order == nil:
			return 1
		case b.Order == nil:
			return -1
		default:
			return *a.Order - *b.Order
		}
	})
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	return names
}

// DefaultType picks the first ordered type flagged as default selection, or
// else the ordered type with the lowest order. Types without an order are
// never selected; with none ordered the result is empty.
func (d *Definition) DefaultType() string {
	selected := ""
	lowest := 0
	for _, t := range d.Types {
		if t.Order == nil {
			continue
		}
		if t.DefaultSelection {
			return t.Name
		}
		if selected == "" || *t.Order < lowest {
			selected, lowest = t.Name, *t.Order
		}
	}
	return selected
}

// SortOptions returns relevance first, then one ascending option per sortable
// field name, in definition order.
func (d *Definition) SortOptions() []SortOption {
	opts := []SortOption{{
		Key:     RelevanceKey,
		Label:   "Relevance",
		Param:   RelevanceKey,
		Fields:  sort.Relevance(),
		Default: true,
	}}
	seen := map[string]struct{}{}
	for _, t := range d.Types {
		for _, f := range t.Fields {
			if !f.Sort {
				continue
			}
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			spec := sort.ByField(f.Name)
			opts = append(opts, SortOption{
				Key:    labelOf(f),
				Label:  labelOf(f),
				Param:  spec.Field + "_" + string(spec.Order),
				Fields: []sort.Spec{spec},
			})
		}
	}
	return opts
}

// SortOption returns the option whose param is param. An empty param selects
// relevance.
func (d *Definition) SortOption(param string) (SortOption, bool) {
	for _, o := range d.SortOptions() {
		if o.Param == param || (param == "" && o.Default) {
			return o, true
		}
	}
	return SortOption{}, false
}

// FacetInfos lists the facets of every type: root facets as
// facet_<type>_<name>, child facets as facet_<type>_<name>.children.<child>.
// Child facets share the exclusive selection flag of their parent field.
func (d *Definition) FacetInfos() []FacetInfo {
	var out []FacetInfo
	for _, t := range d.Types {
		out = append(out, facetInfos(t)...)
	}
	return out
}

func facetInfos(t Type) []FacetInfo {
	var out []FacetInfo
	for _, f := range t.Fields {
		id := "facet_" + t.Name + "_" + f.Name
		if f.Facet != "" {
			out = append(out, FacetInfo{
				ID:        id,
				Type:      t.Name,
				Name:      f.Name,
				Label:     labelOf(f),
				Kind:      f.Facet,
				Order:     f.FacetOrder,
				Exclusive: f.FacetExclusiveSelection,
			})
		}
		for _, c := range f.Children {
			if c.Facet == "" {
				continue
			}
			out = append(out, FacetInfo{
				ID:        id + ".children." + c.Name,
				Type:      t.Name,
				Name:      f.Name,
				Child:     c.Name,
				Label:     labelOf(c),
				Kind:      c.Facet,
				Order:     c.FacetOrder,
				Exclusive: f.FacetExclusiveSelection,
			})
		}
	}
	return out
}

// Facets builds the unselected facets of the named type.
func (d *Definition) Facets(typeName string) ([]facet.Facet, error) {
	t, ok := d.Type(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeName)
	}
	infos := facetInfos(t)
	out := make([]facet.Facet, 0, len(infos))
	for _, info := range infos {
		f, err := facet.NewChild(info.ID, info.Name, info.Child, info.filter())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDefinition, info.ID, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (i FacetInfo) filter() facet.Filter {
	switch i.Kind {
	case facet.KindInput:
		return facet.Input{}
	case facet.KindExists:
		return facet.Exists{}
	case facet.KindRange:
		return facet.Range{}
	default:
		return facet.List{Exclusive: i.Exclusive, Order: i.Order, Size: facet.DefaultSize}
	}
}

// QueryFields maps each type to its boosted search fields, e.g.
// "title.value^5". Ignored fields and their children are left out; the boost
// defaults to 1.
func (d *Definition) QueryFields() map[string][]string {
	out := make(map[string][]string, len(d.Types))
	for _, t := range d.Types {
		fields := []string{}
		for _, f := range t.Fields {
			if f.IgnoreForSearch {
				continue
			}
			fields = append(fields, boosted(f.Name, f.Boost))
			for _, c := range f.Children {
				fields = append(fields, boosted(f.Name+".children."+c.Name, c.Boost))
			}
		}
		out[t.Name] = fields
	}
	return out
}

func boosted(path string, boost float64) string {
	if boost < 1 {
		boost = 1
	}
	return path + ".value^" + strconv.FormatFloat(boost, 'f', -1, 64)
}

// BoostedTypes returns the types having a boost, in definition order.
func (d *Definition) BoostedTypes() []state.BoostedType {
	var out []state.BoostedType
	for _, t := range d.Types {
		if t.Boost > 0 {
			out = append(out, state.BoostedType{Name: t.Name, Boost: t.Boost})
		}
	}
	return out
}

func labelOf(f Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}
