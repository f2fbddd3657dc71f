package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/docuvec/searchd/internal/config"
	"github.com/docuvec/searchd/internal/db"
	dbRedis "github.com/docuvec/searchd/internal/db/redis"
	"github.com/docuvec/searchd/internal/domain"
	"github.com/docuvec/searchd/internal/domain/corpus"
	"github.com/docuvec/searchd/internal/domain/search/mode"
	logpkg "github.com/docuvec/searchd/internal/logger"
	"github.com/docuvec/searchd/internal/metrics"
	"github.com/docuvec/searchd/internal/repository/embcache"
	searchrepo "github.com/docuvec/searchd/internal/repository/search"
	statsrepo "github.com/docuvec/searchd/internal/repository/stats"
	chiTransport "github.com/docuvec/searchd/internal/transport/chi"
	openaiEmb "github.com/docuvec/searchd/internal/transport/openai"
	healthuc "github.com/docuvec/searchd/internal/usecase/health"
	searchuc "github.com/docuvec/searchd/internal/usecase/search"
	statsuc "github.com/docuvec/searchd/internal/usecase/stats"
	"github.com/docuvec/searchd/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("corpora", len(cfg.Corpora)),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	registry, embedders, checkers := buildCorpora(ctx, cfg, store, logger)

	if err := bootstrapIndexes(ctx, cfg, registry, store, logger); err != nil {
		logger.Fatal("Index bootstrap failed", zap.Error(err))
	}

	// Create repositories and use case services
	searchRepo := searchrepo.New(store)
	statsRepo := statsrepo.New(store)

	searchSvc := searchuc.New(searchRepo, registry, embedders, searchuc.Config{
		FusionCandidateFactor: cfg.Search.FusionCandidateFactor,
		MinFusionCandidates:   cfg.Search.MinFusionCandidates,
		RequestTimeout:        time.Duration(cfg.Search.RequestTimeoutMs) * time.Millisecond,
	})
	statsSvc := statsuc.New(statsRepo, registry)
	healthSvc := healthuc.New(store, checkers)

	server := chiTransport.NewServer(searchSvc, statsSvc, healthSvc, registry, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embedderRegistry resolves the query embedder configured for each corpus.
type embedderRegistry map[string]domain.Embedder

func (m embedderRegistry) For(corpusName string) (domain.Embedder, bool) {
	e, ok := m[corpusName]
	return e, ok
}

// buildCorpora assembles the corpus registry plus a per-corpus embedder chain
// and health checker. A dimension mismatch between the provider and the
// configured corpus is fatal; an unreachable provider only logs a warning so
// the service can start while the provider recovers.
func buildCorpora(
	ctx context.Context,
	cfg config.Config,
	store db.Store,
	logger *zap.Logger,
) (*corpus.Registry, embedderRegistry, map[string]healthuc.EmbeddingChecker) {
	corpora := make([]*corpus.Corpus, 0, len(cfg.Corpora))
	embedders := make(embedderRegistry, len(cfg.Corpora))
	checkers := make(map[string]healthuc.EmbeddingChecker, len(cfg.Corpora))

	for _, cc := range cfg.Corpora {
		vecCfg := cfg.Embedding.Vectorizers[cc.Vectorizer]
		provCfg := cfg.Embedding.Providers[vecCfg.Provider]

		vectorFields := make(map[mode.Field]string, len(cc.VectorFields))
		for f, attr := range cc.VectorFields {
			vectorFields[mode.Field(f)] = attr
		}

		c, err := corpus.New(corpus.Config{
			Name:         cc.Name,
			Dimensions:   vecCfg.Dimensions,
			VectorFields: vectorFields,
			FilterFields: cc.FilterFields,
			StatusField:  cc.StatusField,
			ExcludeToken: cc.ExcludeToken,
			ExcludeValue: cc.ExcludeValue,
		})
		if err != nil {
			logger.Fatal("Invalid corpus configuration", zap.String("corpus", cc.Name), zap.Error(err))
		}
		corpora = append(corpora, c)

		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			Provider:   vecCfg.Provider,
			Logger:     logger,
		})

		// Startup self-check: the provider must produce vectors of the
		// dimensionality the corpus index was built for.
		if err := base.VerifyDimensions(ctx, vecCfg.Dimensions); err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) {
				logger.Fatal("Embedding dimension mismatch",
					zap.String("corpus", cc.Name),
					zap.String("model", vecCfg.Model),
					zap.Error(err),
				)
			}
			logger.Warn("Embedding provider unreachable at startup",
				zap.String("corpus", cc.Name),
				zap.Error(err),
			)
		}

		embedders[cc.Name] = buildEmbedder(base, vecCfg.QueryInstruction, store, logger)
		checkers[cc.Name] = base

		logger.Info("Corpus configured",
			zap.String("corpus", cc.Name),
			zap.String("model", vecCfg.Model),
			zap.Int("dimensions", vecCfg.Dimensions),
		)
	}

	registry, err := corpus.NewRegistry(corpora...)
	if err != nil {
		logger.Fatal("Failed to build corpus registry", zap.Error(err))
	}
	return registry, embedders, checkers
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	base *openaiEmb.Embedder,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
}

// bootstrapIndexes creates the FT index of every corpus if it does not exist.
func bootstrapIndexes(
	ctx context.Context,
	cfg config.Config,
	registry *corpus.Registry,
	store db.Store,
	logger *zap.Logger,
) error {
	for _, name := range registry.Names() {
		c, err := registry.Get(name)
		if err != nil {
			return err
		}

		if cfg.Index.RecreateOnBoot {
			if err := store.DropIndex(ctx, c.IndexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
				return fmt.Errorf("drop index %s: %w", c.IndexName(), err)
			}
			logger.Info("Index dropped for recreate", zap.String("index", c.IndexName()))
		}

		b := db.NewIndex(c.IndexName()).Prefix(c.DocKeyPrefix())
		for _, f := range c.FilterFields() {
			b.Tag(f)
		}
		b.Text(searchrepo.ContentField)
		for _, attr := range vectorAttrs(c) {
			b.VectorHNSW(attr, c.Dimensions(), db.DistanceCosine,
				cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct)
		}

		def, err := b.Build()
		if err != nil {
			return fmt.Errorf("build index %s: %w", c.IndexName(), err)
		}

		if err := store.CreateIndex(ctx, def); err != nil {
			if errors.Is(err, db.ErrIndexExists) {
				logger.Debug("Index already exists", zap.String("index", c.IndexName()))
				continue
			}
			return fmt.Errorf("create index %s: %w", c.IndexName(), err)
		}
		logger.Info("Index created", zap.String("index", c.IndexName()))
	}
	return nil
}

// vectorAttrs returns the vector attribute names of a corpus in stable order.
func vectorAttrs(c *corpus.Corpus) []string {
	fields := []mode.Field{mode.Content, mode.Title, mode.Headnotes}
	attrs := make([]string, 0, len(fields))
	for _, f := range fields {
		if attr, ok := c.VectorAttr(f); ok {
			attrs = append(attrs, attr)
		}
	}
	sort.Strings(attrs)
	return attrs
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
