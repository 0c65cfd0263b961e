package kgsearch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// SearchBuilder is a fluent builder for search requests.
type SearchBuilder struct {
	client *Client

	query    string
	typeName string
	sort     string
	from     int
	size     int
	facets   map[string][]string
}

// Query sets the user query string. It is sanitized by the service.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

// Type selects the result type. Empty selects the default type.
func (b *SearchBuilder) Type(name string) *SearchBuilder {
	b.typeName = name
	return b
}

// Facet selects values of a facet. Repeated calls for the same facet add values.
func (b *SearchBuilder) Facet(id string, values ...string) *SearchBuilder {
	if b.facets == nil {
		b.facets = make(map[string][]string)
	}
	b.facets[id] = append(b.facets[id], values...)
	return b
}

// Exists selects documents having a value for an exists facet.
func (b *SearchBuilder) Exists(id string) *SearchBuilder {
	return b.Facet(id, "true")
}

// Sort sets the sort option param, as listed by Definition.
func (b *SearchBuilder) Sort(param string) *SearchBuilder {
	b.sort = param
	return b
}

// From sets the offset of the first hit.
func (b *SearchBuilder) From(n int) *SearchBuilder {
	b.from = n
	return b
}

// Size sets the page size. Zero uses the server default.
func (b *SearchBuilder) Size(n int) *SearchBuilder {
	b.size = n
	return b
}

// Page selects the 1-based page of the given size.
func (b *SearchBuilder) Page(page, size int) *SearchBuilder {
	if page < 1 {
		page = 1
	}
	b.size = size
	b.from = (page - 1) * size
	return b
}

func (b *SearchBuilder) request() searchRequest {
	return searchRequest{
		Q:      b.query,
		Type:   b.typeName,
		From:   b.from,
		Size:   b.size,
		Sort:   b.sort,
		Facets: b.facets,
	}
}

// Do runs the search.
func (b *SearchBuilder) Do(ctx context.Context) (res SearchResult, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("search", start, err) }()

	if err = b.client.do(ctx, http.MethodPost, "/api/search", b.request(), &res); err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// Payload returns the Elasticsearch request the search would send, without
// running it.
func (b *SearchBuilder) Payload(ctx context.Context) (p Payload, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("payload", start, err) }()

	if err = b.client.do(ctx, http.MethodPost, "/api/search/payload", b.request(), &p); err != nil {
		return Payload{}, fmt.Errorf("payload: %w", err)
	}
	return p, nil
}
