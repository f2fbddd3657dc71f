package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/request"
	"github.com/docuvec/searchd/internal/domain/search/result"
	"github.com/docuvec/searchd/internal/metrics"
	healthuc "github.com/docuvec/searchd/internal/usecase/health"
	statsuc "github.com/docuvec/searchd/internal/usecase/stats"
)

// Consumer interfaces over the usecase services (ISP).
type searchService interface {
	Search(ctx context.Context, corpusName string, req *request.Request) (result.Response, error)
}

type statsService interface {
	Stats(ctx context.Context, corpusName string) (statsuc.Report, error)
	Dimension(ctx context.Context, corpusName, field string) ([]statsuc.GroupCount, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the search API.
type Server struct {
	search        searchService
	stats         statsService
	health        healthService
	corpora       *corpus.Registry
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search searchService,
	stats statsService,
	health healthService,
	corpora *corpus.Registry,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		stats:   stats,
		health:  health,
		corpora: corpora,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownCorpus, http.StatusNotFound, codeUnknownCorpus),
		sentinelHandler(domain.ErrUnknownDimension, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrRetrieverUnavailable, http.StatusBadGateway, codeRetrieverUnavailable),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusInternalServerError, codeDimensionMismatch),
	}
	return s
}

// Register mounts the API routes on the given router.
func (s *Server) Register(r chiv5.Router) {
	r.Post("/api/v1/{corpus}/search", s.SearchCorpus)
	r.Get("/api/v1/{corpus}/stats", s.CorpusStats)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchCorpus handles POST /api/v1/{corpus}/search.
func (s *Server) SearchCorpus(w http.ResponseWriter, r *http.Request) {
	corpusName := chiv5.URLParam(r, "corpus")
	c, err := s.corpora.Get(corpusName)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	domReq, err := req.toDomain(c)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), corpusName, &domReq)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(corpusName, string(domReq.Mode()), "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	metrics.SearchRequestsTotal.WithLabelValues(corpusName, string(domReq.Mode()), "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(corpusName, string(domReq.Mode())).Observe(resp.Elapsed().Seconds())
	metrics.SearchResultsReturned.WithLabelValues(corpusName, string(domReq.Mode())).Observe(float64(resp.Total()))

	writeJSON(w, http.StatusOK, searchResponseFrom(&resp))
}

// CorpusStats handles GET /api/v1/{corpus}/stats.
// An optional ?dimension=<field> query returns a single distribution.
func (s *Server) CorpusStats(w http.ResponseWriter, r *http.Request) {
	corpusName := chiv5.URLParam(r, "corpus")

	if dim := r.URL.Query().Get("dimension"); dim != "" {
		counts, err := s.stats.Dimension(r.Context(), corpusName, dim)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dimensionResponse{
			Corpus:    corpusName,
			Dimension: dim,
			Values:    dimensionItems(counts),
		})
		return
	}

	report, err := s.stats.Stats(r.Context(), corpusName)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponseFrom(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidRequest,
		domain.ErrInvalidFilter,
		domain.ErrUnknownCorpus,
		domain.ErrUnknownDimension,
		domain.ErrEmbeddingUnavailable,
		domain.ErrRetrieverUnavailable,
		domain.ErrDimensionMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
