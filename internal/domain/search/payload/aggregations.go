package payload

import (
	"github.com/olivere/elastic/v7"

	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/state"
)

// Aggregation naming.
const (
	// NestedAggName wraps the buckets of child facets.
	NestedAggName = "inner"
	// CountSuffix names the distinct value count next to a terms aggregation.
	CountSuffix = "_count"
)

// aggregations adds one filter aggregation per list or exists facet and one
// for the result types. Each filter holds the active fragments of all other
// facets, so a facet's counts ignore its own selection.
func (b *Builder) aggregations(src *elastic.SearchSource, s state.State, frags []fragment) {
	for _, f := range s.Facets() {
		switch flt := f.Filter().(type) {
		case facet.List:
			agg := elastic.NewFilterAggregation().Filter(combine(frags, f.ID()))
			key := f.Key()
			if f.IsChild() {
				nested := elastic.NewNestedAggregation().Path(f.NestedPath())
				nested.SubAggregation(key, listTerms(key, flt))
				nested.SubAggregation(key+CountSuffix, elastic.NewCardinalityAggregation().Field(key))
				agg.SubAggregation(NestedAggName, nested)
			} else {
				agg.SubAggregation(key, listTerms(key, flt))
				agg.SubAggregation(key+CountSuffix, elastic.NewCardinalityAggregation().Field(key))
			}
			src.Aggregation(f.ID(), agg)
		case facet.Exists:
			src.Aggregation(f.ID(), elastic.NewFilterAggregation().Filter(combine(frags, f.ID())))
		case facet.Input, facet.Range:
		}
	}

	types := elastic.NewFilterAggregation().Filter(combine(frags, state.TypeFacetID))
	types.SubAggregation(b.typeField, elastic.NewTermsAggregation().Field(b.typeField).Size(b.typeAggSize))
	types.SubAggregation(b.typeField+CountSuffix, elastic.NewCardinalityAggregation().Field(b.typeField))
	src.Aggregation(state.TypeFacetID, types)
}

func listTerms(key string, l facet.List) *elastic.TermsAggregation {
	terms := elastic.NewTermsAggregation().Field(key).Size(l.Size)
	if l.Order == facet.ByValue {
		return terms.Order("_term", true)
	}
	return terms.OrderByCountDesc()
}
