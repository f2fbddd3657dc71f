package search

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	"github.com/docuvec/searchd/internal/domain/search/request"
	"github.com/docuvec/searchd/internal/domain/search/result"
)

// Config tunes the orchestrator.
type Config struct {
	// FusionCandidateFactor widens each hybrid leg to limit*factor candidates
	// so fusion has enough overlap material to rerank.
	FusionCandidateFactor int
	// MinFusionCandidates is the per-leg candidate floor in hybrid mode.
	MinFusionCandidates int
	// RequestTimeout bounds one search end to end. Zero disables the bound.
	RequestTimeout time.Duration
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.FusionCandidateFactor <= 0 {
		c.FusionCandidateFactor = 2
	}
	if c.MinFusionCandidates <= 0 {
		c.MinFusionCandidates = 20
	}
}

// Service orchestrates document search across semantic and hybrid modes.
type Service struct {
	repo    Repository
	corpora *corpus.Registry
	embed   EmbedderResolver
	cfg     Config
}

// New creates a search service.
func New(repo Repository, corpora *corpus.Registry, embed EmbedderResolver, cfg Config) *Service {
	cfg.ApplyDefaults()
	return &Service{repo: repo, corpora: corpora, embed: embed, cfg: cfg}
}

// Search runs one search request against the named corpus. The query is
// embedded exactly once regardless of mode; in hybrid mode the KNN and BM25
// legs run concurrently and either leg failing fails the whole request.
func (s *Service) Search(
	ctx context.Context, corpusName string, req *request.Request,
) (result.Response, error) {
	started := time.Now()

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	c, err := s.corpora.Get(corpusName)
	if err != nil {
		return result.Response{}, err
	}

	if err = validateFilters(req, c); err != nil {
		return result.Response{}, err
	}

	embedder, ok := s.embed.For(corpusName)
	if !ok {
		return result.Response{}, fmt.Errorf("%w: no embedder for corpus %q", domain.ErrEmbeddingUnavailable, corpusName)
	}
	emb, err := embedder.Embed(ctx, req.Query())
	if err != nil {
		return result.Response{}, fmt.Errorf("vectorize query: %w", err)
	}
	if len(emb.Embedding) != c.Dimensions() {
		return result.Response{}, fmt.Errorf(
			"%w: corpus %s expects %d dimensions, embedder produced %d",
			domain.ErrDimensionMismatch, c.Name(), c.Dimensions(), len(emb.Embedding),
		)
	}

	var hits []result.Hit
	switch req.Mode() {
	case mode.Semantic:
		hits, err = s.repo.SearchKNN(
			ctx, c, req.Field(), emb.Embedding, req.Filters(), req.Limit(), req.Floor(),
		)
		if err != nil {
			return result.Response{}, fmt.Errorf("search knn: %w", err)
		}
	case mode.Hybrid:
		hits, err = s.searchHybrid(ctx, c, req, emb.Embedding)
		if err != nil {
			return result.Response{}, err
		}
	default:
		return result.Response{}, fmt.Errorf("%w: unsupported search mode %q", domain.ErrInvalidRequest, req.Mode())
	}

	return result.NewResponse(req.Query(), req.Field(), req.Mode(), hits, time.Since(started)), nil
}

// searchHybrid runs the KNN and BM25 legs concurrently over a widened
// candidate window, then fuses via Reciprocal Rank Fusion. The first leg to
// fail cancels its sibling.
func (s *Service) searchHybrid(
	ctx context.Context, c *corpus.Corpus, req *request.Request, vector []float32,
) ([]result.Hit, error) {
	legLimit := req.Limit() * s.cfg.FusionCandidateFactor
	if legLimit < s.cfg.MinFusionCandidates {
		legLimit = s.cfg.MinFusionCandidates
	}

	var knnHits, bm25Hits []result.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		knnHits, err = s.repo.SearchKNN(
			gctx, c, req.Field(), vector, req.Filters(), legLimit, req.Floor(),
		)
		if err != nil {
			return fmt.Errorf("search knn: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bm25Hits, err = s.repo.SearchBM25(gctx, c, req.Query(), req.Filters(), legLimit)
		if err != nil {
			return fmt.Errorf("search bm25: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return fuseRRF(knnHits, bm25Hits, req.Limit()), nil
}

// validateFilters ensures every predicate names a filter field the corpus
// declares.
func validateFilters(req *request.Request, c *corpus.Corpus) error {
	for _, p := range req.Filters().Predicates() {
		if !c.HasFilterField(p.Field()) {
			return fmt.Errorf(
				"%w: corpus %s has no filter field %q", domain.ErrInvalidFilter, c.Name(), p.Field(),
			)
		}
	}
	return nil
}
