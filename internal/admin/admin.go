// Package admin serves liveness, readiness and Prometheus metrics for the
// example programs.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/xshmem/internal/logger"
)

var internalLogger = logger.New("admin", os.Stdout)

// Server exposes /live, /ready and /metrics.
type Server struct {
	health healthcheck.Handler
	mux    *http.ServeMux
	srv    *http.Server
	ln     net.Listener
}

// New builds a server whose health checks are also reported as gauges in reg
// and whose /metrics endpoint serves reg.
func New(addr string, reg *prometheus.Registry) *Server {
	h := healthcheck.NewMetricsHandler(reg, "xshmem")
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))

	mux := http.NewServeMux()
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &Server{
		health: h,
		mux:    mux,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// AddReadinessCheck registers a check that must pass before /ready reports 200.
func (s *Server) AddReadinessCheck(name string, check func() error) {
	s.health.AddReadinessCheck(name, check)
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	internalLogger.Infof("admin listening on %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			internalLogger.Errorf("admin server: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.srv.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
