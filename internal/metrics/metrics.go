// Package metrics exposes Prometheus metrics for the tile server on a
// listener separate from the tile traffic, so scrapes never contend with
// rendering.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Provider owns the metrics registry and the HTTP server that exposes it.
type Provider struct {
	reg    *prometheus.Registry
	server *http.Server
	logger *zap.Logger
}

func NewProvider(addr string, logger *zap.Logger) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Provider{
		reg: reg,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Handler returns the scrape handler directly, for tests and for embedding
// into an existing mux.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Serve blocks on the metrics listener. A clean Shutdown returns nil.
func (p *Provider) Serve() error {
	p.logger.Info("Metrics listening", zap.String("addr", p.server.Addr))
	if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}
