package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docuvec/searchd/internal/db"
	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/result"
)

// --- SearchKNN ---

func TestSearchKNN_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)
	ctx := context.Background()

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "searchd:cases:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.VectorField != "content_vector" {
			t.Errorf("unexpected vector field: %s", q.VectorField)
		}
		if q.K != 10 {
			t.Errorf("unexpected K: %d", q.K)
		}
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{
					Key:   "searchd:cases:doc-1",
					Score: 0.877,
					Fields: map[string]string{
						"__content":    "landmark ruling on statutory fraud",
						"title":        "Smith v. Jones",
						"jurisdiction": "CA",
					},
				},
				{
					Key:   "searchd:cases:doc-2",
					Score: 0.544,
					Fields: map[string]string{
						"__content": "procedural history",
						"title":     "In re Estate",
					},
				},
			},
		}, nil
	}

	hits, err := repo.SearchKNN(ctx, c, mode.Content, testVector(), filter.Spec{}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "doc-1" {
		t.Fatalf("expected ID doc-1, got %s", hits[0].ID())
	}
	if hits[0].Similarity() != 0.877 {
		t.Errorf("expected similarity 0.877, got %f", hits[0].Similarity())
	}
	if hits[0].Origin() != result.OriginSemantic {
		t.Errorf("expected semantic origin, got %s", hits[0].Origin())
	}
	if hits[0].Title() != "Smith v. Jones" {
		t.Errorf("unexpected title %q", hits[0].Title())
	}
	if hits[0].Fields()["jurisdiction"] != "CA" {
		t.Errorf("expected jurisdiction metadata, got %v", hits[0].Fields())
	}
	if _, ok := hits[0].Fields()["__content"]; ok {
		t.Error("content should not leak into metadata fields")
	}
}

func TestSearchKNN_TitleField(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.VectorField != "title_vector" {
			t.Errorf("expected title_vector, got %s", q.VectorField)
		}
		return &db.SearchResult{}, nil
	}

	_, err := repo.SearchKNN(context.Background(), c, mode.Title, testVector(), filter.Spec{}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchKNN_UnknownVectorField(t *testing.T) {
	repo, _ := newTestRepo(t)
	c := testCorpus(t)

	_, err := repo.SearchKNN(context.Background(), c, mode.Headnotes, testVector(), filter.Spec{}, 10, 0)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSearchKNN_FloorDropsWeakHits(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "searchd:cases:strong", Score: 0.9, Fields: map[string]string{}},
				{Key: "searchd:cases:weak", Score: 0.3, Fields: map[string]string{}},
			},
		}, nil
	}

	hits, err := repo.SearchKNN(context.Background(), c, mode.Content, testVector(), filter.Spec{}, 10, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit after floor, got %d", len(hits))
	}
	if hits[0].ID() != "strong" {
		t.Errorf("expected strong, got %s", hits[0].ID())
	}
}

func TestSearchKNN_DeterministicOrder(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 3,
			Entries: []db.SearchEntry{
				{Key: "searchd:cases:b", Score: 0.5, Fields: map[string]string{}},
				{Key: "searchd:cases:a", Score: 0.5, Fields: map[string]string{}},
				{Key: "searchd:cases:c", Score: 0.9, Fields: map[string]string{}},
			},
		}, nil
	}

	hits, err := repo.SearchKNN(context.Background(), c, mode.Content, testVector(), filter.Spec{}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{hits[0].ID(), hits[1].ID(), hits[2].ID()}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestSearchKNN_SnippetTruncation(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	long := strings.Repeat("x", 1000)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{Key: "searchd:cases:1", Score: 0.8, Fields: map[string]string{"__content": long}},
			},
		}, nil
	}

	hits, err := repo.SearchKNN(context.Background(), c, mode.Content, testVector(), filter.Spec{}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits[0].Snippet()) != snippetLength {
		t.Errorf("expected snippet length %d, got %d", snippetLength, len(hits[0].Snippet()))
	}
}

func TestSearchKNN_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("connection reset")
	}

	_, err := repo.SearchKNN(context.Background(), c, mode.Content, testVector(), filter.Spec{}, 10, 0)
	if !errors.Is(err, domain.ErrRetrieverUnavailable) {
		t.Fatalf("expected ErrRetrieverUnavailable, got %v", err)
	}
}

// --- SearchBM25 ---

func TestSearchBM25_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	ms.searchBM25Fn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if q.IndexName != "searchd:cases:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.TextField != "__content" {
			t.Errorf("unexpected text field: %s", q.TextField)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{
				{
					Key:   "searchd:cases:doc-9",
					Score: 2.4,
					Fields: map[string]string{
						"__content": "fraud claim dismissed",
						"title":     "People v. Doe",
					},
				},
			},
		}, nil
	}

	hits, err := repo.SearchBM25(context.Background(), c, "fraud", filter.Spec{}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Origin() != result.OriginKeyword {
		t.Errorf("expected keyword origin, got %s", hits[0].Origin())
	}
	if hits[0].Similarity() != 0 {
		t.Errorf("keyword hit similarity must be 0, got %f", hits[0].Similarity())
	}
	if hits[0].Score() != 2.4 {
		t.Errorf("expected BM25 score 2.4, got %f", hits[0].Score())
	}
}

func TestSearchBM25_FiltersForwarded(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	p, _ := filter.NewNotEquals("status", "overruled")
	spec, _ := filter.New(p)

	ms.searchBM25Fn = func(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
		if len(q.Filters.Predicates()) != 1 {
			t.Errorf("expected 1 predicate forwarded, got %d", len(q.Filters.Predicates()))
		}
		return &db.SearchResult{}, nil
	}

	if _, err := repo.SearchBM25(context.Background(), c, "fraud", spec, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchBM25_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	c := testCorpus(t)

	ms.searchBM25Fn = func(_ context.Context, _ *db.TextQuery) (*db.SearchResult, error) {
		return nil, errors.New("index missing")
	}

	_, err := repo.SearchBM25(context.Background(), c, "fraud", filter.Spec{}, 10)
	if !errors.Is(err, domain.ErrRetrieverUnavailable) {
		t.Fatalf("expected ErrRetrieverUnavailable, got %v", err)
	}
}
