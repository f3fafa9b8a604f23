// package server contains middleware & handlers for the audio resolution proxy
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/samber/mo"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, CORS, rate limiting, panic recovery.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own several routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Resolver is the resolution core as seen by the HTTP layer.
type Resolver interface {
	Resolve(ctx context.Context, identifier string, capability models.Capability) mo.Result[models.Resolution]
	Strategies() map[string][]string
}

// Forwarder streams media bytes for the /proxy route.
type Forwarder interface {
	Forward(ctx context.Context, w http.ResponseWriter, mediaURL, rangeHeader string) error
}

// Server wires the router, middleware and handlers to an [http.Server].
type Server struct {
	config  shared.ServerConfig
	router  *BasicRouter
	logger  *log.Logger
	version string
}

// New builds the server and registers every route.
func New(config shared.ServerConfig, resolver Resolver, relay Forwarder, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(
		Recover(logger),
		Logging(logger),
		CORS(),
		RateLimit(NewLimiter(config.RateLimit, config.Burst)),
	)

	api := &APIHandler{resolver: resolver, version: version, logger: logger}
	router.Handle(http.MethodGet, "/stream", http.HandlerFunc(api.Stream))
	router.Handle(http.MethodGet, "/search", http.HandlerFunc(api.Search))
	router.Handle(http.MethodGet, "/playlist", http.HandlerFunc(api.Playlist))
	router.Handle(http.MethodGet, "/trending", http.HandlerFunc(api.Trending))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(api.Health))
	router.Handle(http.MethodGet, "/{$}", http.HandlerFunc(api.Index))
	router.Handle(http.MethodGet, "/", http.HandlerFunc(api.NotFound))
	router.Handler(&ProxyHandler{relay: relay, logger: logger})

	return &Server{config: config, router: router, logger: logger, version: version}
}

// ServeHTTP exposes the routed handler, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String(), "version", s.version)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
