package chi

import (
	"context"
	"testing"

	chiv5 "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/request"
	"github.com/docuvec/searchd/internal/domain/search/result"
	healthuc "github.com/docuvec/searchd/internal/usecase/health"
	statsuc "github.com/docuvec/searchd/internal/usecase/stats"
)

type mockSearch struct {
	searchFn   func(ctx context.Context, corpusName string, req *request.Request) (result.Response, error)
	lastCorpus string
	lastReq    *request.Request
}

func (m *mockSearch) Search(
	ctx context.Context, corpusName string, req *request.Request,
) (result.Response, error) {
	m.lastCorpus = corpusName
	m.lastReq = req
	if m.searchFn != nil {
		return m.searchFn(ctx, corpusName, req)
	}
	return result.Response{}, nil
}

type mockStats struct {
	statsFn     func(ctx context.Context, corpusName string) (statsuc.Report, error)
	dimensionFn func(ctx context.Context, corpusName, field string) ([]statsuc.GroupCount, error)
}

func (m *mockStats) Stats(ctx context.Context, corpusName string) (statsuc.Report, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, corpusName)
	}
	return statsuc.Report{}, nil
}

func (m *mockStats) Dimension(
	ctx context.Context, corpusName, field string,
) ([]statsuc.GroupCount, error) {
	if m.dimensionFn != nil {
		return m.dimensionFn(ctx, corpusName, field)
	}
	return nil, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	return m.report
}

func testRegistry(t *testing.T) *corpus.Registry {
	t.Helper()

	legal, err := corpus.New(corpus.Config{
		Name:       "legal",
		Dimensions: 768,
		VectorFields: map[mode.Field]string{
			mode.Content:   "content_vector",
			mode.Title:     "title_vector",
			mode.Headnotes: "headnotes_vector",
		},
		FilterFields: []string{"jurisdiction", "doc_type", "practice_area", "status"},
		StatusField:  "status",
		ExcludeToken: "exclude_overruled",
		ExcludeValue: "overruled",
	})
	if err != nil {
		t.Fatalf("corpus.New legal: %v", err)
	}

	catalog, err := corpus.New(corpus.Config{
		Name:       "catalog",
		Dimensions: 384,
		VectorFields: map[mode.Field]string{
			mode.Content: "content_vector",
			mode.Title:   "title_vector",
		},
		FilterFields: []string{"category", "status"},
		StatusField:  "status",
	})
	if err != nil {
		t.Fatalf("corpus.New catalog: %v", err)
	}

	reg, err := corpus.NewRegistry(legal, catalog)
	if err != nil {
		t.Fatalf("corpus.NewRegistry: %v", err)
	}
	return reg
}

func newTestRouter(
	t *testing.T, search searchService, stats statsService, health healthService,
) *chiv5.Mux {
	t.Helper()
	if search == nil {
		search = &mockSearch{}
	}
	if stats == nil {
		stats = &mockStats{}
	}
	if health == nil {
		health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}

	srv := NewServer(search, stats, health, testRegistry(t), zap.NewNop())
	r := chiv5.NewRouter()
	srv.Register(r)
	return r
}
