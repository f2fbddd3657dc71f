package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/request"
	"github.com/docuvec/searchd/internal/domain/search/result"
	healthuc "github.com/docuvec/searchd/internal/usecase/health"
	statsuc "github.com/docuvec/searchd/internal/usecase/stats"
)

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var er errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return er
}

func TestSearchCorpus_Semantic(t *testing.T) {
	hits := []result.Hit{
		result.New("doc:1", 0.93, 0.93, result.OriginSemantic,
			"Smith v. Jones", "The court held...", map[string]string{"jurisdiction": "CA"}),
	}
	search := &mockSearch{
		searchFn: func(_ context.Context, _ string, req *request.Request) (result.Response, error) {
			return result.NewResponse(req.Query(), req.Field(), req.Mode(), hits, 5*time.Millisecond), nil
		},
	}
	r := newTestRouter(t, search, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/legal/search", `{"query": "breach of contract"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Query != "breach of contract" {
		t.Errorf("unexpected echoed query %q", resp.Query)
	}
	if resp.SearchField != "content" || resp.SearchMethod != "semantic" {
		t.Errorf("unexpected field/method %q/%q", resp.SearchField, resp.SearchMethod)
	}
	if resp.TotalResults != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", resp.TotalResults)
	}
	item := resp.Results[0]
	if item.ID != "doc:1" || item.Origin != "semantic" || item.Similarity != 0.93 {
		t.Errorf("unexpected result item %+v", item)
	}
	if item.Metadata["jurisdiction"] != "CA" {
		t.Errorf("metadata not carried: %v", item.Metadata)
	}
	if resp.LatencyMs != 5.0 {
		t.Errorf("expected latency 5ms, got %f", resp.LatencyMs)
	}
	if search.lastCorpus != "legal" {
		t.Errorf("expected corpus legal, got %q", search.lastCorpus)
	}
}

func TestSearchCorpus_HybridViaSearchField(t *testing.T) {
	search := &mockSearch{
		searchFn: func(_ context.Context, _ string, req *request.Request) (result.Response, error) {
			return result.NewResponse(req.Query(), req.Field(), req.Mode(), nil, time.Millisecond), nil
		},
	}
	r := newTestRouter(t, search, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/legal/search",
		`{"query": "liability", "search_field": "hybrid", "top_k": 5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if search.lastReq.Mode() != mode.Hybrid {
		t.Errorf("expected hybrid mode, got %q", search.lastReq.Mode())
	}
	if search.lastReq.Field() != mode.Content {
		t.Errorf("hybrid should target the content field, got %q", search.lastReq.Field())
	}
	if search.lastReq.Limit() != 5 {
		t.Errorf("expected limit 5, got %d", search.lastReq.Limit())
	}

	var resp searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SearchField != "hybrid" || resp.SearchMethod != "hybrid" {
		t.Errorf("unexpected echoed field/method %q/%q", resp.SearchField, resp.SearchMethod)
	}
}

func TestSearchCorpus_FilterMapping(t *testing.T) {
	search := &mockSearch{}
	r := newTestRouter(t, search, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/legal/search",
		`{"query": "negligence", "jurisdiction": "CA", "doc_type": "opinion", "status_filter": "exclude_overruled"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	preds := search.lastReq.Filters().Predicates()
	if len(preds) != 3 {
		t.Fatalf("expected 3 predicates, got %d", len(preds))
	}
	if preds[0].Field() != "jurisdiction" || preds[0].Value() != "CA" || preds[0].Op() != filter.Equals {
		t.Errorf("unexpected predicate %+v", preds[0])
	}
	if preds[1].Field() != "doc_type" || preds[1].Value() != "opinion" {
		t.Errorf("unexpected predicate %+v", preds[1])
	}
	// exclude_overruled becomes a negative predicate on the status field
	if preds[2].Field() != "status" || preds[2].Value() != "overruled" || preds[2].Op() != filter.NotEquals {
		t.Errorf("unexpected status predicate %+v", preds[2])
	}
}

func TestSearchCorpus_StatusEqualityFallback(t *testing.T) {
	search := &mockSearch{}
	r := newTestRouter(t, search, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/catalog/search",
		`{"query": "laptop", "category": "electronics", "status_filter": "active"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	preds := search.lastReq.Filters().Predicates()
	if len(preds) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(preds))
	}
	if preds[1].Field() != "status" || preds[1].Value() != "active" || preds[1].Op() != filter.Equals {
		t.Errorf("unexpected status predicate %+v", preds[1])
	}
}

func TestSearchCorpus_BadJSON(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/legal/search", `{"query": `)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if er := decodeError(t, rr); er.Code != codeBadRequest {
		t.Errorf("expected bad_request, got %q", er.Code)
	}
}

func TestSearchCorpus_BlankQuery(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/legal/search", `{"query": "   "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if er := decodeError(t, rr); er.Code != codeInvalidQuery {
		t.Errorf("expected invalid_query, got %q", er.Code)
	}
}

func TestSearchCorpus_UnknownSearchField(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/legal/search",
		`{"query": "q", "search_field": "summary"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if er := decodeError(t, rr); er.Code != codeValidationFailed {
		t.Errorf("expected validation_failed, got %q", er.Code)
	}
}

func TestSearchCorpus_UnknownCorpus(t *testing.T) {
	r := newTestRouter(t, nil, nil, nil)

	rr := doJSON(t, r, "POST", "/api/v1/patents/search", `{"query": "q"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if er := decodeError(t, rr); er.Code != codeUnknownCorpus {
		t.Errorf("expected unknown_corpus, got %q", er.Code)
	}
}

func TestSearchCorpus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   errorCode
	}{
		{"embedding down", domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingUnavailable},
		{"retriever down", domain.ErrRetrieverUnavailable, http.StatusBadGateway, codeRetrieverUnavailable},
		{"dimension drift", domain.ErrDimensionMismatch, http.StatusInternalServerError, codeDimensionMismatch},
		{"undeclared filter", domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, codeInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			search := &mockSearch{
				searchFn: func(_ context.Context, _ string, _ *request.Request) (result.Response, error) {
					return result.Response{}, tc.err
				},
			}
			r := newTestRouter(t, search, nil, nil)

			rr := doJSON(t, r, "POST", "/api/v1/legal/search", `{"query": "q"}`)
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			er := decodeError(t, rr)
			if er.Code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, er.Code)
			}
			if tc.wantCode == codeInternalError && er.Message != "internal error" {
				t.Errorf("internal errors must not leak details, got %q", er.Message)
			}
		})
	}
}

func TestCorpusStats(t *testing.T) {
	stats := &mockStats{
		statsFn: func(_ context.Context, corpusName string) (statsuc.Report, error) {
			return statsuc.Report{
				Corpus: corpusName,
				Total:  120,
				Fields: map[string][]statsuc.GroupCount{
					"jurisdiction": {{Value: "CA", Count: 80}, {Value: "NY", Count: 40}},
				},
			}, nil
		},
	}
	r := newTestRouter(t, nil, stats, nil)

	rr := doJSON(t, r, "GET", "/api/v1/legal/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp statsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Corpus != "legal" || resp.IndexedCount != 120 {
		t.Errorf("unexpected header fields %+v", resp)
	}
	if len(resp.Dimensions["jurisdiction"]) != 2 || resp.Dimensions["jurisdiction"][0].Value != "CA" {
		t.Errorf("unexpected dimensions %v", resp.Dimensions)
	}
}

func TestCorpusStats_SingleDimension(t *testing.T) {
	stats := &mockStats{
		dimensionFn: func(_ context.Context, _ string, field string) ([]statsuc.GroupCount, error) {
			if field != "doc_type" {
				t.Errorf("expected dimension doc_type, got %q", field)
			}
			return []statsuc.GroupCount{{Value: "opinion", Count: 90}}, nil
		},
	}
	r := newTestRouter(t, nil, stats, nil)

	rr := doJSON(t, r, "GET", "/api/v1/legal/stats?dimension=doc_type", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dimensionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Dimension != "doc_type" || len(resp.Values) != 1 || resp.Values[0].Count != 90 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestCorpusStats_UnknownDimension(t *testing.T) {
	stats := &mockStats{
		dimensionFn: func(_ context.Context, _, _ string) ([]statsuc.GroupCount, error) {
			return nil, domain.ErrUnknownDimension
		},
	}
	r := newTestRouter(t, nil, stats, nil)

	rr := doJSON(t, r, "GET", "/api/v1/legal/stats?dimension=color", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if er := decodeError(t, rr); er.Code != codeValidationFailed {
		t.Errorf("expected validation_failed, got %q", er.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		report     healthuc.Report
		wantStatus int
	}{
		{
			"healthy",
			healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{
				"database": healthuc.CheckOK,
			}},
			http.StatusOK,
		},
		{
			"degraded",
			healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{
				"database":        healthuc.CheckOK,
				"embedding:legal": healthuc.CheckError,
			}},
			http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, nil, nil, &mockHealth{report: tc.report})

			rr := doJSON(t, r, "GET", "/health", "")
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp healthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != string(tc.report.Status) {
				t.Errorf("expected status %q, got %q", tc.report.Status, resp.Status)
			}
			if len(resp.Checks) != len(tc.report.Checks) {
				t.Errorf("expected %d checks, got %d", len(tc.report.Checks), len(resp.Checks))
			}
		})
	}
}
