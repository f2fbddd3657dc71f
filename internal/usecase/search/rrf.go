package search

import (
	"sort"

	"github.com/docuvec/searchd/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges KNN and BM25 candidate lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over each ranking where d appears,
// ranks 1-based. The union of both lists is kept; a document found by both
// legs is tagged hybrid and retains the cosine similarity from the KNN leg.
// Ties break on ascending document ID so ordering is deterministic.
func fuseRRF(knn, bm25 []result.Hit, limit int) []result.Hit {
	type scored struct {
		hit    result.Hit
		score  float64
		origin result.Origin
	}

	merged := make(map[string]*scored, len(knn)+len(bm25))

	for rank, h := range knn {
		merged[h.ID()] = &scored{
			hit:    h,
			score:  1.0 / float64(rrfK+rank+1),
			origin: result.OriginSemantic,
		}
	}

	for rank, h := range bm25 {
		s := 1.0 / float64(rrfK+rank+1)
		if existing, ok := merged[h.ID()]; ok {
			existing.score += s
			existing.origin = result.OriginHybrid
			// the KNN copy wins, it carries the real similarity
		} else {
			merged[h.ID()] = &scored{hit: h, score: s, origin: result.OriginKeyword}
		}
	}

	fused := make([]result.Hit, 0, len(merged))
	for _, s := range merged {
		fused = append(fused, s.hit.WithFusion(s.score, s.origin))
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score() != fused[j].Score() {
			return fused[i].Score() > fused[j].Score()
		}
		return fused[i].ID() < fused[j].ID()
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
