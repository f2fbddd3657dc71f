package domain

import "errors"

var (
	// ErrInvalidQuery signals a blank or malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidRequest signals an out-of-range request parameter.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidFilter signals a filter on a field the corpus does not declare.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownCorpus signals a request against an unconfigured corpus.
	ErrUnknownCorpus = errors.New("unknown corpus")
	// ErrUnknownDimension signals a stats grouping on an undeclared field.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrEmbeddingUnavailable signals an embedding provider failure or timeout.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrRetrieverUnavailable signals a search backend failure or timeout.
	ErrRetrieverUnavailable = errors.New("retriever unavailable")
	// ErrDimensionMismatch signals an embedding whose length disagrees with
	// the corpus configuration. Verified once at startup; a per-request hit
	// means the provider changed models underneath us.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
