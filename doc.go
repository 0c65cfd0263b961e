// Package kgsearch provides a Go client for the kgsearch API, a faceted
// search service over Knowledge Graph indices in Elasticsearch.
//
//	client, _ := kgsearch.New("http://localhost:8080", kgsearch.WithAPIKey("secret"))
//	res, _ := client.Search().
//	    Query("mouse brain").
//	    Type("Dataset").
//	    Facet("facet_Dataset_species", "Mouse").
//	    Size(20).
//	    Do(ctx)
//
// The builder can also return the Elasticsearch request body without running
// it (Payload), and Sanitize reports how a query string is rewritten.
package kgsearch
