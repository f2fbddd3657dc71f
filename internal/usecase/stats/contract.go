package stats

import (
	"context"

	"github.com/docuvec/searchd/internal/domain/corpus"
)

// GroupCount is one value bucket of a grouped count, ordered by descending
// count in repository output.
type GroupCount struct {
	Value string
	Count int64
}

// Repository defines the aggregation contract for corpus statistics.
type Repository interface {
	// IndexedCount returns the number of indexed documents in the corpus.
	IndexedCount(ctx context.Context, c *corpus.Corpus) (int64, error)

	// CountByField groups indexed documents by one metadata field.
	CountByField(ctx context.Context, c *corpus.Corpus, field string) ([]GroupCount, error)
}
