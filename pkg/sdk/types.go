package searchd

// SearchResult is one hit in a search response.
type SearchResult struct {
	ID             string            `json:"id"`
	Title          string            `json:"title,omitempty"`
	ContentSnippet string            `json:"content_snippet,omitempty"`
	Score          float64           `json:"score"`
	Similarity     float64           `json:"similarity"`
	Origin         string            `json:"origin"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SearchResponse is the full search reply.
type SearchResponse struct {
	Query        string         `json:"query"`
	SearchField  string         `json:"search_field"`
	SearchMethod string         `json:"search_method"`
	TotalResults int            `json:"total_results"`
	Results      []SearchResult `json:"results"`
	LatencyMs    float64        `json:"latency_ms"`
}

// DimensionCount is one value bucket in a field distribution.
type DimensionCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Stats reports corpus index statistics.
type Stats struct {
	Corpus       string                      `json:"corpus"`
	IndexedCount int64                       `json:"indexed_count"`
	Dimensions   map[string][]DimensionCount `json:"dimensions"`
}

// Health reports the service health status and per-component checks.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
