package result

import (
	"time"

	"github.com/docuvec/searchd/internal/domain/search/mode"
)

// Origin tags which retrieval leg produced a hit.
type Origin string

// Origin constants.
const (
	// OriginSemantic marks a hit found only by vector similarity.
	OriginSemantic Origin = "semantic"
	// OriginKeyword marks a hit found only by lexical match.
	OriginKeyword Origin = "keyword"
	// OriginHybrid marks a hit found by both legs.
	OriginHybrid Origin = "hybrid"
)

// Hit is a single ranked search result. score is the ordering key (cosine
// similarity for a semantic pass, RRF score after fusion); similarity is the
// display cosine similarity, 0 for keyword-only hits by convention.
type Hit struct {
	id         string
	score      float64
	similarity float64
	origin     Origin
	title      string
	snippet    string
	fields     map[string]string
}

// New creates a search hit.
func New(
	id string, score, similarity float64, origin Origin,
	title, snippet string, fields map[string]string,
) Hit {
	return Hit{
		id: id, score: score, similarity: similarity, origin: origin,
		title: title, snippet: snippet, fields: fields,
	}
}

// WithFusion returns a copy of the hit re-scored and re-tagged by rank fusion.
func (h Hit) WithFusion(score float64, origin Origin) Hit {
	h.score = score
	h.origin = origin
	return h
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the ordering score.
func (h *Hit) Score() float64 { return h.score }

// Similarity returns the display cosine similarity in [0,1].
func (h *Hit) Similarity() float64 { return h.similarity }

// Origin returns the retrieval leg tag.
func (h *Hit) Origin() Origin { return h.origin }

// Title returns the document title.
func (h *Hit) Title() string { return h.title }

// Snippet returns the leading content excerpt.
func (h *Hit) Snippet() string { return h.snippet }

// Fields returns the document metadata fields.
func (h *Hit) Fields() map[string]string { return h.fields }

// Response is the assembled outcome of one search request.
// Constructed once, returned, discarded.
type Response struct {
	query   string
	field   mode.Field
	md      mode.Mode
	hits    []Hit
	elapsed time.Duration
}

// NewResponse creates a search response.
func NewResponse(query string, field mode.Field, m mode.Mode, hits []Hit, elapsed time.Duration) Response {
	return Response{query: query, field: field, md: m, hits: hits, elapsed: elapsed}
}

// Query returns the echoed query text.
func (r *Response) Query() string { return r.query }

// Field returns the target field searched.
func (r *Response) Field() mode.Field { return r.field }

// Mode returns the retrieval mode actually used.
func (r *Response) Mode() mode.Mode { return r.md }

// Hits returns the ordered result list.
func (r *Response) Hits() []Hit { return r.hits }

// Total returns the result count.
func (r *Response) Total() int { return len(r.hits) }

// Elapsed returns the end-to-end wall-clock duration.
func (r *Response) Elapsed() time.Duration { return r.elapsed }
