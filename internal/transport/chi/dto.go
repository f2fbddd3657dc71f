package chi

import (
	"fmt"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/request"
	"github.com/docuvec/searchd/internal/domain/search/result"
	statsuc "github.com/docuvec/searchd/internal/usecase/stats"
)

// errorCode is the machine-readable error identifier in error responses.
type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeInvalidQuery         errorCode = "invalid_query"
	codeInvalidFilter        errorCode = "invalid_filter"
	codeValidationFailed     errorCode = "validation_failed"
	codeUnknownCorpus        errorCode = "unknown_corpus"
	codeEmbeddingUnavailable errorCode = "embedding_unavailable"
	codeRetrieverUnavailable errorCode = "retriever_unavailable"
	codeDimensionMismatch    errorCode = "dimension_mismatch"
	codeUnauthorized         errorCode = "unauthorized"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// searchRequest is the POST /api/v1/{corpus}/search body. The named filter
// fields cover both corpora; a filter on a field the target corpus does not
// declare is rejected with invalid_filter.
type searchRequest struct {
	Query               string  `json:"query"`
	TopK                int     `json:"top_k,omitempty"`
	SearchField         string  `json:"search_field,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	Jurisdiction string `json:"jurisdiction,omitempty"`
	DocType      string `json:"doc_type,omitempty"`
	PracticeArea string `json:"practice_area,omitempty"`
	Category     string `json:"category,omitempty"`
	StatusFilter string `json:"status_filter,omitempty"`
}

// toDomain validates the wire request against the corpus descriptor and
// builds the immutable domain request.
func (req *searchRequest) toDomain(c *corpus.Corpus) (request.Request, error) {
	field, m, err := mode.ParseField(req.SearchField)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	spec, err := req.filterSpec(c)
	if err != nil {
		return request.Request{}, err
	}

	r, err := request.New(req.Query, field, m, spec, req.TopK, req.SimilarityThreshold)
	if err != nil {
		return request.Request{}, err
	}
	return r, nil
}

func (req *searchRequest) filterSpec(c *corpus.Corpus) (filter.Spec, error) {
	named := []struct {
		field string
		value string
	}{
		{"jurisdiction", req.Jurisdiction},
		{"doc_type", req.DocType},
		{"practice_area", req.PracticeArea},
		{"category", req.Category},
	}

	var preds []filter.Predicate
	for _, nf := range named {
		if nf.value == "" {
			continue
		}
		p, err := filter.NewEquals(nf.field, nf.value)
		if err != nil {
			return filter.Spec{}, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
		}
		preds = append(preds, p)
	}

	p, ok, err := c.StatusPredicate(req.StatusFilter)
	if err != nil {
		return filter.Spec{}, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}
	if ok {
		preds = append(preds, p)
	}

	spec, err := filter.New(preds...)
	if err != nil {
		return filter.Spec{}, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}
	return spec, nil
}

type searchResultItem struct {
	ID             string            `json:"id"`
	Title          string            `json:"title,omitempty"`
	ContentSnippet string            `json:"content_snippet,omitempty"`
	Score          float64           `json:"score"`
	Similarity     float64           `json:"similarity"`
	Origin         string            `json:"origin"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type searchResponse struct {
	Query        string             `json:"query"`
	SearchField  string             `json:"search_field"`
	SearchMethod string             `json:"search_method"`
	TotalResults int                `json:"total_results"`
	Results      []searchResultItem `json:"results"`
	LatencyMs    float64            `json:"latency_ms"`
}

func searchResponseFrom(resp *result.Response) searchResponse {
	items := make([]searchResultItem, resp.Total())
	for i, h := range resp.Hits() {
		items[i] = searchResultItem{
			ID:             h.ID(),
			Title:          h.Title(),
			ContentSnippet: h.Snippet(),
			Score:          h.Score(),
			Similarity:     h.Similarity(),
			Origin:         string(h.Origin()),
			Metadata:       h.Fields(),
		}
	}

	// Hybrid mode was selected via the search_field value, echo it back the same way.
	echoedField := string(resp.Field())
	if resp.Mode() == mode.Hybrid {
		echoedField = string(mode.Hybrid)
	}

	return searchResponse{
		Query:        resp.Query(),
		SearchField:  echoedField,
		SearchMethod: string(resp.Mode()),
		TotalResults: resp.Total(),
		Results:      items,
		LatencyMs:    float64(resp.Elapsed().Microseconds()) / 1000.0,
	}
}

type dimensionItem struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type statsResponse struct {
	Corpus       string                     `json:"corpus"`
	IndexedCount int64                      `json:"indexed_count"`
	Dimensions   map[string][]dimensionItem `json:"dimensions"`
}

func statsResponseFrom(report statsuc.Report) statsResponse {
	dims := make(map[string][]dimensionItem, len(report.Fields))
	for field, counts := range report.Fields {
		dims[field] = dimensionItems(counts)
	}
	return statsResponse{
		Corpus:       report.Corpus,
		IndexedCount: report.Total,
		Dimensions:   dims,
	}
}

type dimensionResponse struct {
	Corpus    string          `json:"corpus"`
	Dimension string          `json:"dimension"`
	Values    []dimensionItem `json:"values"`
}

func dimensionItems(counts []statsuc.GroupCount) []dimensionItem {
	items := make([]dimensionItem, len(counts))
	for i, gc := range counts {
		items[i] = dimensionItem{Value: gc.Value, Count: gc.Count}
	}
	return items
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
