package search

import (
	"context"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/result"
)

// Repository defines the retrieval contract for search operations.
// Both methods return hits sorted by score descending, document ID ascending.
type Repository interface {
	SearchKNN(
		ctx context.Context, c *corpus.Corpus, field mode.Field,
		vector []float32, filters filter.Spec, limit int, floor float64,
	) ([]result.Hit, error)

	SearchBM25(
		ctx context.Context, c *corpus.Corpus,
		query string, filters filter.Spec, limit int,
	) ([]result.Hit, error)
}

// EmbedderResolver resolves the embedding client configured for a corpus.
type EmbedderResolver interface {
	For(corpusName string) (domain.Embedder, bool)
}
