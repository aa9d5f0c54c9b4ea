package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/mw"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/routes"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// NewRouter builds the handler tree. Every route, unknown ones included,
// passes the access guard before anything else runs. Guard rejections are
// final, so only authorized traffic reaches the rate limiter.
func NewRouter(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.Log(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(mw.Guard(d.Token, d.TrustProxy, d.Logger))
	r.Use(mw.RateLimit(mw.RateLimitConfig{
		RPS:        d.RateLimitRPS,
		Burst:      d.RateLimitBurst,
		TrustProxy: d.TrustProxy,
	}))
	r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	routes.RegisterAll(r, d)
	return r
}

// New builds the HTTP server bound to addr.
func New(addr string, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	// Read/write deadlines stay open: large jobs on slow links are bounded by
	// the per-request timeout instead.
	return &Server{http: s, logger: d.Logger}
}

// Listen binds the socket so bind errors surface before Serve is started.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.http.Addr)
}

// Serve runs the HTTP server on ln (blocks until error or shutdown).
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infof("HTTP server listening on %s", ln.Addr())
	err := s.http.Serve(ln)
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
