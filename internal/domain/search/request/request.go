// Package request holds a validated search selection as it arrives from a client.
package request

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultSize    = 20
	MaxSize        = 100
	// MaxSelections is the maximum number of selected facets.
	MaxSelections = 64
)

// Request is a validated search selection: free text, result type, facet
// values keyed by facet id, sort option and page.
type Request struct {
	query      string
	typeName   string
	selections map[string][]string
	sort       string
	from       int
	size       int
}

// New validates and normalizes search parameters.
// Defaults: size=20. Size is clamped to MaxSize. Empty selection values are dropped.
func New(
	query, typeName string,
	selections map[string][]string,
	sortParam string,
	from, size int,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if from < 0 {
		return Request{}, fmt.Errorf("from must be >= 0")
	}
	if size < 0 {
		return Request{}, fmt.Errorf("size must be >= 0")
	}
	if size == 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	if len(selections) > MaxSelections {
		return Request{}, fmt.Errorf("too many facet selections (max %d)", MaxSelections)
	}

	sel := make(map[string][]string, len(selections))
	for id, values := range selections {
		if strings.TrimSpace(id) == "" {
			return Request{}, fmt.Errorf("facet id is required")
		}
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			sel[id] = kept
		}
	}

	return Request{
		query:      strings.TrimSpace(query),
		typeName:   typeName,
		selections: sel,
		sort:       sortParam,
		from:       from,
		size:       size,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Type returns the selected result type, empty for the default.
func (r *Request) Type() string { return r.typeName }

// Selections returns a copy of the selected values keyed by facet id.
func (r *Request) Selections() map[string][]string {
	out := make(map[string][]string, len(r.selections))
	for id, v := range r.selections {
		out[id] = slices.Clone(v)
	}
	return out
}

// SelectedIDs returns the selected facet ids in sorted order.
func (r *Request) SelectedIDs() []string {
	return slices.Sorted(maps.Keys(r.selections))
}

// Sort returns the sort option param, empty for relevance.
func (r *Request) Sort() string { return r.sort }

// From returns the pagination offset.
func (r *Request) From() int { return r.from }

// Size returns the page size.
func (r *Request) Size() int { return r.size }
