// internal/server/server.go

// Package server assembles the HTTP surface: the GraphQL endpoint, health
// checks, the CSRF token endpoint and Prometheus metrics, behind the
// request pipeline (CORS, security headers, CSRF, throttling, body limit,
// request ids, access logging).
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"libraryql/internal/config"
	"libraryql/internal/telemetry"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Schema   *graphql.Schema
	Store    Pinger
	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the HTTP handler for cfg.
func NewRouter(cfg *config.Config, deps Deps) (http.Handler, error) {
	if deps.Schema == nil {
		return nil, errors.New("server: schema is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	protect, err := csrfProtection(cfg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestID,
		instrument(deps.Logger, deps.Metrics),
		middleware.Recoverer,
		securityHeaders(cfg.IsProduction()),
		cors.Handler(corsOptions(cfg.CORS.AllowedOrigins)),
		newThrottle(cfg.Throttle.Limit, cfg.Throttle.TTL, deps.Metrics).middleware,
		bodyLimit(cfg.Security.JSONLimit),
		protect,
	)

	r.Get("/csrf-token", csrfToken)
	r.Get("/health", health(deps.Store))
	r.Get("/health/database", databaseHealth(deps.Store))
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.Handle("/graphql", &relay.Handler{Schema: deps.Schema})
	return r, nil
}

// corsOptions allows the listed origins. An empty list allows none; the
// cors package would otherwise treat it as "*".
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return opts
}

// Run serves h on addr until ctx is cancelled, then drains in-flight
// requests for up to grace.
func Run(ctx context.Context, addr string, h http.Handler, grace time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}
	return nil
}
