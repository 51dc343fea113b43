package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/igraph100/DW-Spectrum/internal/log"
)

const DefaultListen = ":9100"

// Server serves /metrics for a set of collectors.
type Server struct {
	http     *http.Server
	Registry *prometheus.Registry
}

func NewServer(listen string, collectors ...prometheus.Collector) *Server {
	if listen == "" {
		listen = DefaultListen
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors...)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: log.WithComponent("metrics"),
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	return &Server{
		http:     &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		Registry: registry,
	}
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// an error.
func (s *Server) ListenAndServe() error {
	log.WithComponent("metrics").WithField("listen", s.http.Addr).Info("exporter listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
