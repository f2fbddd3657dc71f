package searchd

import (
	"context"
	"fmt"
	"net/http"
)

// SearchBuilder accumulates search parameters before Do sends the request.
type SearchBuilder struct {
	client *Client
	corpus string

	query       string
	field       string
	topK        int
	minSim      float64
	filters     map[string]string
	filterOrder []string
	status      string
}

// Query sets the search text.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	b.query = q
	return b
}

// Field targets a specific vector field, e.g. "title" or "headnotes".
func (b *SearchBuilder) Field(f string) *SearchBuilder {
	b.field = f
	return b
}

// Hybrid requests fused semantic and keyword retrieval.
func (b *SearchBuilder) Hybrid() *SearchBuilder {
	b.field = "hybrid"
	return b
}

// Where adds an exact-match metadata filter. The field must be a filter
// field the target corpus declares, e.g. "jurisdiction" or "category".
func (b *SearchBuilder) Where(field, value string) *SearchBuilder {
	if b.filters == nil {
		b.filters = make(map[string]string)
	}
	if _, seen := b.filters[field]; !seen {
		b.filterOrder = append(b.filterOrder, field)
	}
	b.filters[field] = value
	return b
}

// Status filters on the corpus status field. Pass the corpus exclude token
// (see ExcludeStatus) to invert the match.
func (b *SearchBuilder) Status(value string) *SearchBuilder {
	b.status = value
	return b
}

// ExcludeStatus is a readable alias for Status with an exclude token,
// e.g. ExcludeStatus("exclude_overruled").
func (b *SearchBuilder) ExcludeStatus(token string) *SearchBuilder {
	return b.Status(token)
}

// MinSimilarity drops semantic hits scoring below the threshold.
func (b *SearchBuilder) MinSimilarity(threshold float64) *SearchBuilder {
	b.minSim = threshold
	return b
}

// Limit caps the number of results.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.topK = n
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (*SearchResponse, error) {
	body := map[string]any{"query": b.query}
	if b.topK > 0 {
		body["top_k"] = b.topK
	}
	if b.field != "" {
		body["search_field"] = b.field
	}
	if b.minSim > 0 {
		body["similarity_threshold"] = b.minSim
	}
	for _, field := range b.filterOrder {
		body[field] = b.filters[field]
	}
	if b.status != "" {
		body["status_filter"] = b.status
	}

	var out SearchResponse
	path := fmt.Sprintf("/api/v1/%s/search", b.corpus)
	if err := b.client.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
