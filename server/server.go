// Package server exposes link resolution over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"teraplay/internal"
)

const shutdownTimeout = 10 * time.Second

// Server serves POST /api/resolve, /healthz and /metrics
type Server struct {
	resolver  internal.LinkResolver
	bodyLimit int64
	router    *mux.Router
	http      *http.Server
	requests  *prometheus.CounterVec
}

// New wires the routes. Collectors are registered on reg and /metrics serves
// whatever gatherer exposes.
func New(config *internal.Config, resolver internal.LinkResolver, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Server, error) {
	s := &Server{
		resolver:  resolver,
		bodyLimit: config.RequestBodyLimit,
		router:    mux.NewRouter(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teraplay",
			Name:      "http_requests_total",
			Help:      "Requests to the resolve API by method and status code.",
		}, []string{"code", "method"}),
	}
	if s.bodyLimit <= 0 {
		s.bodyLimit = internal.DefaultConfig().RequestBodyLimit
	}
	if err := reg.Register(s.requests); err != nil {
		return nil, err
	}

	s.router.Use(requestIDMiddleware, recoverMiddleware)
	s.router.Handle("/api/resolve", promhttp.InstrumentHandlerCounter(s.requests, http.HandlerFunc(s.handleResolve))).
		Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet, http.MethodHead)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:              config.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully once ctx ends
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		internal.LogInfo("Listening on %s", ln.Addr())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		defer internal.LogInfo("Server stopped")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
