// Package httpserver exposes the engine snapshot over JSON/HTTP, WebSocket and
// the Prometheus exposition endpoint.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OliveiraNt/infralens/internal/adapters/http/mid"
	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Engine is the part of the engine served over HTTP.
type Engine interface {
	GetClusterSnapshot() (domain.ClusterSnapshot, error)
	// UserView returns one published view without internal topics and groups.
	UserView() (domain.View, error)
	GetHealth() domain.Health
	TriggerRefresh()
	Connect(ctx context.Context) error
	Disconnect()
	Subscribe() (<-chan struct{}, func())
}

// Server provides the HTTP API endpoints for InfraLens.
type Server struct {
	engine  Engine
	metrics http.Handler
	cluster func() config.ClusterConfig
	version string
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCluster reports the monitored cluster configuration on the index route.
func WithCluster(fn func() config.ClusterConfig) Option {
	return func(s *Server) { s.cluster = fn }
}

// WithVersion sets the version reported on the index route.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a new HTTP server instance.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{engine: engine, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(mid.I18n)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.apiIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cluster-status", s.apiClusterStatus)
		r.Get("/topics", s.apiListTopics)
		r.Get("/topics/{topicName}", s.apiGetTopic)
		r.Get("/consumer-groups", s.apiListConsumerGroups)
		r.Get("/consumer-groups/{groupID}", s.apiGetConsumerGroup)
		r.Get("/health", s.apiHealth)
		r.Post("/refresh", s.apiRefresh)
		r.Post("/connect", s.apiConnect)
		r.Post("/disconnect", s.apiDisconnect)
		r.Get("/ws", s.wsClusterStatus)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// Run starts the HTTP server on the given address and shuts it down when ctx
// is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	utils.Logger.Info("HTTP server stopped")
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		utils.Logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
