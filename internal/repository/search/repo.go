package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docuvec/searchd/internal/db"
	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/result"
)

// Document hash field conventions.
const (
	// ContentField is the hash attribute holding the searchable document text.
	// The index bootstrap declares it as the TEXT field of every corpus.
	ContentField = "__content"
	titleField   = "title"
	// snippetLength caps the content excerpt returned with each hit.
	snippetLength = 300
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchKNN performs a vector similarity search over the corpus index.
// Hits below the similarity floor are dropped; the rest come back ordered
// by similarity descending, document ID ascending.
func (r *Repo) SearchKNN(
	ctx context.Context, c *corpus.Corpus, field mode.Field,
	vector []float32, filters filter.Spec, limit int, floor float64,
) ([]result.Hit, error) {
	attr, ok := c.VectorAttr(field)
	if !ok {
		return nil, fmt.Errorf("%w: corpus %s has no %s vector field", domain.ErrInvalidRequest, c.Name(), field)
	}

	q := &db.KNNQuery{
		IndexName:    c.IndexName(),
		VectorField:  attr,
		Vector:       vector,
		Filters:      filters,
		K:            limit,
		ReturnFields: returnFields(c),
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search knn %s: %v", domain.ErrRetrieverUnavailable, c.Name(), err)
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		if floor > 0 && entry.Score < floor {
			continue
		}
		id := strings.TrimPrefix(entry.Key, c.DocKeyPrefix())
		hits = append(hits, buildHit(id, entry, entry.Score, entry.Score, result.OriginSemantic))
	}

	sortHits(hits)
	return hits, nil
}

// SearchBM25 performs a BM25 keyword search over the corpus content field.
// Keyword hits report similarity 0 since no vector comparison happened.
func (r *Repo) SearchBM25(
	ctx context.Context, c *corpus.Corpus,
	query string, filters filter.Spec, limit int,
) ([]result.Hit, error) {
	q := &db.TextQuery{
		IndexName:    c.IndexName(),
		TextField:    ContentField,
		Query:        query,
		Filters:      filters,
		Limit:        limit,
		ReturnFields: returnFields(c),
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search bm25 %s: %v", domain.ErrRetrieverUnavailable, c.Name(), err)
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, c.DocKeyPrefix())
		hits = append(hits, buildHit(id, entry, entry.Score, 0, result.OriginKeyword))
	}

	sortHits(hits)
	return hits, nil
}

// returnFields lists the hash fields fetched with each hit: the content for
// snippets, the title, and the corpus metadata fields.
func returnFields(c *corpus.Corpus) []string {
	fields := []string{ContentField, titleField}
	return append(fields, c.FilterFields()...)
}

func buildHit(id string, entry db.SearchEntry, score, similarity float64, origin result.Origin) result.Hit {
	var title, snippet string
	meta := make(map[string]string)

	for k, v := range entry.Fields {
		switch k {
		case ContentField:
			snippet = truncate(v, snippetLength)
		case titleField:
			title = v
		default:
			meta[k] = v
		}
	}

	return result.New(id, score, similarity, origin, title, snippet, meta)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// sortHits orders by score descending, document ID ascending.
func sortHits(hits []result.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score() != hits[j].Score() {
			return hits[i].Score() > hits[j].Score()
		}
		return hits[i].ID() < hits[j].ID()
	})
}
