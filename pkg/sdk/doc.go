// Package searchd provides a Go client for the searchd hybrid search service.
//
// The client talks to the HTTP API and exposes a fluent search builder:
//
//	client := searchd.New("http://localhost:8080", searchd.WithAPIKey("secret"))
//	res, err := client.Search("legal").
//	    Query("breach of contract").
//	    Hybrid().
//	    Where("jurisdiction", "CA").
//	    ExcludeStatus("exclude_overruled").
//	    Limit(10).
//	    Do(ctx)
package searchd
