// Package api exposes the proxy's status, health, Prometheus, and
// dashboard HTTP endpoints. It never touches the proxy's data path.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quintusl/socksd/internal/config"
	"github.com/quintusl/socksd/internal/metrics"
)

// ActiveConnections reports the current number of connections being
// served, per listener, for /status.
type ActiveConnections interface {
	ActiveConnections() (socks5, http int)
}

// Server is the REST status/health/metrics/dashboard server.
type Server struct {
	cfg        *config.Config
	metrics    *metrics.Collector
	conns      ActiveConnections
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates an API server bound to cfg's configuration,
// reporting m's metrics and conns' live connection counts.
func NewServer(cfg *config.Config, m *metrics.Collector, conns ActiveConnections) *Server {
	return &Server{
		cfg:       cfg,
		metrics:   m,
		conns:     conns,
		startTime: time.Now(),
	}
}

// Start starts the HTTP API server on port.
func (s *Server) Start(port int) error {
	r := mux.NewRouter()

	r.HandleFunc("/status", s.statusHandler).Methods("GET")
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")

	// Dashboard at the exact path "/"; other unknown paths get a 404.
	r.HandleFunc("/", s.dashboardHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.BindAddress, port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("[api] status/metrics API listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[api] server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
