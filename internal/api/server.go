package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"netflowMonitor/internal/metrics"
	"netflowMonitor/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// HealthChecker reports whether the store behind the read path is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server exposes the latest netflow snapshot per exchange over HTTP. It only
// reads; writes happen on the watcher's path.
type Server struct {
	reader storage.NetflowReader
	health HealthChecker
	logger *zap.Logger
	srv    *http.Server
}

func NewServer(addr string, reader storage.NetflowReader, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		reader: reader,
		health: health,
		logger: logger,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Mount("/metrics", metrics.Handler())

	r.Get("/netflow/{exchange}", s.handleNetflow)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}
