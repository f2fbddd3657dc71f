package stats

import (
	"context"
	"fmt"

	"github.com/docuvec/searchd/internal/db"
	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/usecase/stats"
)

// store is the consumer interface for aggregation operations (ISP).
type store interface {
	SearchCount(ctx context.Context, index, query string) (int64, error)
	Aggregate(ctx context.Context, q *db.AggregateQuery) ([]db.GroupRow, error)
}

// Repo implements usecase/stats.Repository.
type Repo struct {
	store store
}

// New creates a stats repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// IndexedCount returns the number of documents in the corpus index.
func (r *Repo) IndexedCount(ctx context.Context, c *corpus.Corpus) (int64, error) {
	total, err := r.store.SearchCount(ctx, c.IndexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", domain.ErrRetrieverUnavailable, c.Name(), err)
	}
	return total, nil
}

// CountByField groups corpus documents by one metadata field.
func (r *Repo) CountByField(ctx context.Context, c *corpus.Corpus, field string) ([]stats.GroupCount, error) {
	rows, err := r.store.Aggregate(ctx, &db.AggregateQuery{
		IndexName: c.IndexName(),
		GroupBy:   field,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate %s by %s: %v", domain.ErrRetrieverUnavailable, c.Name(), field, err)
	}

	counts := make([]stats.GroupCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, stats.GroupCount{Value: row.Value, Count: row.Count})
	}
	return counts, nil
}
