package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsShutdownTimeout = 2 * time.Second

// metricsServer exposes a registry over HTTP for the lifetime of a command.
type metricsServer struct {
	addr   string
	srv    *http.Server
	done   chan struct{}
	logger *log.Logger
}

// newMetricsRouter wires /metrics for reg and a /health probe.
func newMetricsRouter(reg *prometheus.Registry) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return r
}

// startMetricsServer listens on addr and serves reg in the background.
// The Go runtime and process collectors are added to reg.
func startMetricsServer(addr string, reg *prometheus.Registry, logger *log.Logger) (*metricsServer, error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen on %s: %w", addr, err)
	}

	m := &metricsServer{
		addr: ln.Addr().String(),
		srv: &http.Server{
			Handler:           newMetricsRouter(reg),
			ReadHeaderTimeout: 5 * time.Second,
		},
		done:   make(chan struct{}),
		logger: logger,
	}
	go func() {
		defer close(m.done)
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()

	logger.Info("serving metrics", "addr", m.addr)
	return m, nil
}

// Addr returns the address the server is listening on.
func (m *metricsServer) Addr() string {
	return m.addr
}

// Stop shuts the server down and waits for it to exit.
func (m *metricsServer) Stop() {
	if m == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	if err := m.srv.Shutdown(ctx); err != nil {
		m.logger.Warn("metrics server shutdown", "err", err)
	}
	<-m.done
}
