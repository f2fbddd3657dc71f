package search

import (
	"context"
	"testing"

	"github.com/docuvec/searchd/internal/db"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/mode"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchBM25Fn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	c, err := corpus.New(corpus.Config{
		Name:       "cases",
		Dimensions: 4,
		VectorFields: map[mode.Field]string{
			mode.Content: "content_vector",
			mode.Title:   "title_vector",
		},
		FilterFields: []string{"jurisdiction", "status"},
		StatusField:  "status",
		ExcludeToken: "exclude_overruled",
		ExcludeValue: "overruled",
	})
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	return c
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}
