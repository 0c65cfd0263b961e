// Package payload assembles the Elasticsearch request body of a search:
// query, post filter, per-facet filtered aggregations, sort, paging and
// highlighting.
package payload

import (
	"encoding/json"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/querystring"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/state"
)

// Builder turns a search state into a request body. It holds read-only
// options and is safe for concurrent use.
type Builder struct {
	typeField       string
	highlightFields []string
	typeAggSize     int
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		typeField:       DefaultTypeField,
		highlightFields: DefaultHighlightFields,
		typeAggSize:     DefaultTypeAggSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the request body for s.
func (b *Builder) Build(s state.State) *elastic.SearchSource {
	src, _ := b.BuildAnalyzed(s)
	return src
}

// BuildAnalyzed is Build that also reports what the sanitizer did to the
// query string.
func (b *Builder) BuildAnalyzed(s state.State) (*elastic.SearchSource, querystring.Result) {
	src := elastic.NewSearchSource()

	analysis := querystring.Analyze(s.QueryString(), s.Tweaking())
	if analysis.Query != "" {
		src.Query(b.query(s, analysis.Query))
	}

	frags := b.fragments(s)
	src.PostFilter(combine(frags, ""))
	b.aggregations(src, s, frags)

	if specs := s.Sort(); len(specs) > 0 {
		sorters := make([]elastic.Sorter, 0, len(specs))
		for _, spec := range specs {
			sorters = append(sorters, spec.Sorter())
		}
		src.SortBy(sorters...)
	}

	src.From(s.From()).Size(s.Size())

	if len(b.highlightFields) > 0 {
		fields := make([]*elastic.HighlighterField, 0, len(b.highlightFields))
		for _, f := range b.highlightFields {
			fields = append(fields, elastic.NewHighlighterField(f))
		}
		src.Highlight(elastic.NewHighlight().Fields(fields...).Encoder("html"))
	}
	return src, analysis
}

// Body returns the request body as a JSON-ready map.
func (b *Builder) Body(s state.State) (map[string]any, error) {
	raw, err := b.Build(s).Source()
	if err != nil {
		return nil, fmt.Errorf("build search source: %w", err)
	}
	body, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("build search source: unexpected %T", raw)
	}
	return body, nil
}

// JSON returns the serialized request body. Equal states give identical
// bytes.
func (b *Builder) JSON(s state.State) ([]byte, error) {
	raw, err := b.Build(s).Source()
	if err != nil {
		return nil, fmt.Errorf("build search source: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal search source: %w", err)
	}
	return data, nil
}

func (b *Builder) query(s state.State, sanitized string) elastic.Query {
	qs := elastic.NewQueryStringQuery(sanitized).Lenient(true)
	for _, f := range s.Fields() {
		qs = qs.Field(f)
	}

	boosted := s.BoostedTypes()
	if len(boosted) == 0 {
		return qs
	}
	should := elastic.NewBoolQuery().Should(qs)
	for _, t := range boosted {
		should.Should(elastic.NewTermQuery(b.typeField, t.Name).Boost(t.Boost))
	}
	return should
}

// fragment is the derived filter of one facet.
type fragment struct {
	id      string
	kind    facet.Kind
	active  bool
	queries []elastic.Query
}

func (b *Builder) fragments(s state.State) []fragment {
	var frags []fragment
	for _, f := range s.Facets() {
		qs := f.Fragments()
		if len(qs) == 0 {
			continue
		}
		frags = append(frags, fragment{id: f.ID(), kind: f.Kind(), active: f.Active(), queries: qs})
	}
	if t := s.SelectedType(); t != "" {
		frags = append(frags, fragment{
			id:      state.TypeFacetID,
			active:  s.SharedIndex(),
			queries: []elastic.Query{elastic.NewTermQuery(b.typeField, t)},
		})
	}
	return frags
}

// combine joins the active fragments other than except into one filter. An
// exists facet keeps its own fragment. The type fragment is active only on a
// shared index; a dedicated type index needs no type filter.
func combine(frags []fragment, except string) elastic.Query {
	var qs []elastic.Query
	for _, fr := range frags {
		switch {
		case fr.id == except:
			if fr.kind == facet.KindExists {
				qs = append(qs, fr.queries...)
			}
		case fr.active:
			qs = append(qs, fr.queries...)
		}
	}

	switch len(qs) {
	case 0:
		return elastic.NewMatchAllQuery()
	case 1:
		return qs[0]
	default:
		return elastic.NewBoolQuery().Must(qs...)
	}
}
