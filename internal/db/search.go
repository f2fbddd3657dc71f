package db

import "github.com/docuvec/searchd/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // index attribute holding the embedding
	Vector       []float32
	Filters      filter.Spec
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	TextField    string // index attribute holding the searchable text
	Query        string
	Filters      filter.Spec
	Limit        int
	ReturnFields []string
}

// AggregateQuery groups all indexed documents by one field.
type AggregateQuery struct {
	IndexName string
	GroupBy   string
	Limit     int
}

// GroupRow is one bucket of an aggregation, ordered by descending count.
type GroupRow struct {
	Value string
	Count int64
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int64
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
