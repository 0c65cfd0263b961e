package search

import (
	"context"

	"github.com/olivere/elastic/v7"
)

// Searcher executes a serialized request body against an index.
// Implemented by transport/es and by the searchcache decorator.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*elastic.SearchResult, error)
}
