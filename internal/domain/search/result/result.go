// Package result reads hits and facet counts out of a search response.
package result

import (
	"encoding/json"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/payload"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/state"
)

// Hit is a single search hit.
type Hit struct {
	ID        string              `json:"id"`
	Index     string              `json:"index"`
	Score     *float64            `json:"score,omitempty"`
	Source    json.RawMessage     `json:"source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// Bucket is one facet value and the number of hits having it.
type Bucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Facet holds the counts of one facet. List facets have buckets and a
// distinct value count; exists facets only a document count.
type Facet struct {
	ID       string     `json:"id"`
	Kind     facet.Kind `json:"kind"`
	DocCount int64      `json:"doc_count"`
	Distinct int64      `json:"distinct,omitempty"`
	Buckets  []Bucket   `json:"buckets,omitempty"`
}

// Response is a parsed search response.
type Response struct {
	Total  int64    `json:"total"`
	TookMS int64    `json:"took_ms"`
	Hits   []Hit    `json:"hits"`
	Facets []Facet  `json:"facets"`
	Types  []Bucket `json:"types"`
}

// Parse reads res, which must come from a payload built for s with the given
// type field. Aggregations missing from res are reported as empty.
func Parse(res *elastic.SearchResult, s state.State, typeField string) (Response, error) {
	if res == nil {
		return Response{}, fmt.Errorf("nil search result")
	}

	out := Response{
		Total:  res.TotalHits(),
		TookMS: res.TookInMillis,
		Hits:   []Hit{},
		Facets: []Facet{},
		Types:  []Bucket{},
	}
	if res.Hits != nil {
		for _, h := range res.Hits.Hits {
			out.Hits = append(out.Hits, Hit{
				ID:        h.Id,
				Index:     h.Index,
				Score:     h.Score,
				Source:    h.Source,
				Highlight: h.Highlight,
			})
		}
	}

	for _, f := range s.Facets() {
		single, ok := res.Aggregations.Filter(f.ID())
		if !ok {
			continue
		}
		counts := Facet{ID: f.ID(), Kind: f.Kind(), DocCount: single.DocCount}
		if f.Kind() == facet.KindList {
			aggs := single.Aggregations
			if f.IsChild() {
				inner, ok := aggs.Nested(payload.NestedAggName)
				if !ok {
					out.Facets = append(out.Facets, counts)
					continue
				}
				aggs = inner.Aggregations
			}
			counts.Buckets, counts.Distinct = terms(aggs, f.Key())
		}
		out.Facets = append(out.Facets, counts)
	}

	if single, ok := res.Aggregations.Filter(state.TypeFacetID); ok {
		out.Types, _ = terms(single.Aggregations, typeField)
	}
	return out, nil
}

func terms(aggs elastic.Aggregations, key string) ([]Bucket, int64) {
	buckets := []Bucket{}
	if items, ok := aggs.Terms(key); ok {
		for _, b := range items.Buckets {
			buckets = append(buckets, Bucket{Value: bucketKey(b), Count: b.DocCount})
		}
	}
	var distinct int64
	if card, ok := aggs.Cardinality(key + payload.CountSuffix); ok && card.Value != nil {
		distinct = int64(*card.Value)
	}
	return buckets, distinct
}

func bucketKey(b *elastic.AggregationBucketKeyItem) string {
	if b.KeyAsString != nil {
		return *b.KeyAsString
	}
	if s, ok := b.Key.(string); ok {
		return s
	}
	return fmt.Sprint(b.Key)
}
