package stats

import (
	"context"
	"fmt"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
)

// Report is the aggregated statistics of one corpus.
type Report struct {
	Corpus string
	Total  int64
	// Fields holds per-field value distributions keyed by filter field name.
	Fields map[string][]GroupCount
}

// Service reports corpus-level index statistics.
type Service struct {
	repo    Repository
	corpora *corpus.Registry
}

// New creates a stats service.
func New(repo Repository, corpora *corpus.Registry) *Service {
	return &Service{repo: repo, corpora: corpora}
}

// Stats returns the document total and the value distribution of every
// declared filter field of the corpus.
func (s *Service) Stats(ctx context.Context, corpusName string) (Report, error) {
	c, err := s.corpora.Get(corpusName)
	if err != nil {
		return Report{}, err
	}

	total, err := s.repo.IndexedCount(ctx, c)
	if err != nil {
		return Report{}, fmt.Errorf("count documents: %w", err)
	}

	fields := make(map[string][]GroupCount)
	for _, f := range c.FilterFields() {
		counts, err := s.repo.CountByField(ctx, c, f)
		if err != nil {
			return Report{}, fmt.Errorf("count by %s: %w", f, err)
		}
		fields[f] = counts
	}

	return Report{Corpus: c.Name(), Total: total, Fields: fields}, nil
}

// Dimension returns the value distribution of a single filter field.
// The field must be declared by the corpus.
func (s *Service) Dimension(ctx context.Context, corpusName, field string) ([]GroupCount, error) {
	c, err := s.corpora.Get(corpusName)
	if err != nil {
		return nil, err
	}
	if !c.HasFilterField(field) {
		return nil, fmt.Errorf("%w: %q is not a filter field of corpus %s",
			domain.ErrUnknownDimension, field, c.Name())
	}

	counts, err := s.repo.CountByField(ctx, c, field)
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", field, err)
	}
	return counts, nil
}
