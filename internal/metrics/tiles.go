package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TileMetrics counts served tiles and times the database renders behind
// them. All methods are safe on a nil receiver, recording nothing, so
// callers never branch on whether metrics are enabled.
type TileMetrics struct {
	renderSeconds prometheus.Histogram
	servedTotal   *prometheus.CounterVec
	tileBytes     prometheus.Histogram
}

func NewTileMetrics(reg prometheus.Registerer) *TileMetrics {
	m := &TileMetrics{
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tile_render_duration_seconds",
			Help:    "Time spent executing the tile statement against the database.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		servedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiles_served_total",
			Help: "Tiles served by outcome: hit, rendered, empty or error.",
		}, []string{"outcome"}),
		tileBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tile_size_bytes",
			Help:    "Size of served tile payloads in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}
	reg.MustRegister(m.renderSeconds, m.servedTotal, m.tileBytes)
	return m
}

// ObserveHit records a tile answered from cache.
func (m *TileMetrics) ObserveHit(bytes int) {
	if m == nil {
		return
	}
	m.servedTotal.WithLabelValues("hit").Inc()
	m.tileBytes.Observe(float64(bytes))
}

// ObserveRender records a tile rendered by the database. Zero-byte tiles
// count under the empty outcome.
func (m *TileMetrics) ObserveRender(d time.Duration, bytes int) {
	if m == nil {
		return
	}
	outcome := "rendered"
	if bytes == 0 {
		outcome = "empty"
	}
	m.servedTotal.WithLabelValues(outcome).Inc()
	m.renderSeconds.Observe(d.Seconds())
	m.tileBytes.Observe(float64(bytes))
}

// ObserveError records a render that failed.
func (m *TileMetrics) ObserveError() {
	if m == nil {
		return
	}
	m.servedTotal.WithLabelValues("error").Inc()
}
