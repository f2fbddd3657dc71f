package request

import (
	"fmt"
	"strings"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/search/filter"
	"github.com/docuvec/searchd/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Request is a validated, immutable search query. Constructed once per
// incoming call; all defaulting and clamping happens in New.
type Request struct {
	query   string
	field   mode.Field
	md      mode.Mode
	filters filter.Spec
	limit   int
	floor   float64
}

// New validates and normalizes search parameters.
// Defaults: field=content, mode=semantic, limit=10, floor=0.
// A limit above MaxLimit is clamped, never rejected.
func New(
	query string,
	field mode.Field,
	m mode.Mode,
	filters filter.Spec,
	limit int,
	floor float64,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if field == "" {
		field = mode.Content
	}
	if !field.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search field %q", domain.ErrInvalidRequest, field)
	}
	if m == "" {
		m = mode.Semantic
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidRequest, m)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if floor < 0 || floor > 1 {
		return Request{}, fmt.Errorf("%w: similarity threshold must be between 0 and 1", domain.ErrInvalidRequest)
	}

	return Request{
		query:   query,
		field:   field,
		md:      m,
		filters: filters,
		limit:   limit,
		floor:   floor,
	}, nil
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// Field returns the target embedding field.
func (r *Request) Field() mode.Field { return r.field }

// Mode returns the retrieval strategy.
func (r *Request) Mode() mode.Mode { return r.md }

// Filters returns the metadata predicates.
func (r *Request) Filters() filter.Spec { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Floor returns the minimum cosine similarity for the semantic leg.
func (r *Request) Floor() float64 { return r.floor }
