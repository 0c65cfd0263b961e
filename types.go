package kgsearch

import (
	"github.com/ebrains-kg/kgsearch/internal/domain/definition"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/querystring"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/result"
	searchuc "github.com/ebrains-kg/kgsearch/internal/usecase/search"
)

// Response types shared with the server.
type (
	Hit        = result.Hit
	Bucket     = result.Bucket
	Facet      = result.Facet
	Overview   = searchuc.Overview
	TypeInfo   = searchuc.TypeInfo
	FacetInfo  = definition.FacetInfo
	SortOption = definition.SortOption
	Payload    = searchuc.Payload
	Sanitized  = querystring.Result
	QueryTerm  = querystring.Term
)

// SearchResult is one page of hits with facet and type counts.
type SearchResult struct {
	Total  int64    `json:"total"`
	TookMS int64    `json:"took_ms"`
	Hits   []Hit    `json:"hits"`
	Facets []Facet  `json:"facets"`
	Types  []Bucket `json:"types"`
	From   int      `json:"from"`
	Size   int      `json:"size"`
}

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// searchRequest is the body of the search and payload endpoints.
type searchRequest struct {
	Q      string              `json:"q"`
	Type   string              `json:"type,omitempty"`
	From   int                 `json:"from,omitempty"`
	Size   int                 `json:"size,omitempty"`
	Sort   string              `json:"sort,omitempty"`
	Facets map[string][]string `json:"facets,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
