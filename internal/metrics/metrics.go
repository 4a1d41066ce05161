// Package metrics exposes Prometheus metrics for the harvester.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version   string
	Revision  string
	BuildDate string
}

type Provider struct {
	reg       *prometheus.Registry
	buildInfo *prometheus.GaugeVec

	downloads     *prometheus.CounterVec
	downloadBytes prometheus.Counter
	fetchDuration prometheus.Histogram
	derivatives   *prometheus.CounterVec
}

func Init(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "build_date"},
	)
	reg.MustRegister(buildInfo)
	if build.Version == "" {
		build.Version = "dev"
	}
	buildInfo.WithLabelValues(build.Version, build.Revision, build.BuildDate).Set(1)

	p := &Provider{reg: reg, buildInfo: buildInfo}

	p.downloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dem_downloads_total",
			Help: "Coverage fetches by outcome (ok, skipped, error).",
		},
		[]string{"outcome"},
	)
	p.downloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dem_download_bytes_total",
			Help: "Raw coverage bytes written to disk.",
		},
	)
	p.fetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dem_fetch_duration_seconds",
			Help:    "Wall time of a whole fetch, capabilities included.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		},
	)
	p.derivatives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dem_derivatives_total",
			Help: "Terrain derivatives computed, by kind (slope, aspect).",
		},
		[]string{"kind"},
	)
	reg.MustRegister(p.downloads, p.downloadBytes, p.fetchDuration, p.derivatives)

	return p
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// FetchDone implements harvester.Observer.
func (p *Provider) FetchDone(outcome string, bytes int64, elapsed time.Duration) {
	p.downloads.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		p.downloadBytes.Add(float64(bytes))
	}
	p.fetchDuration.Observe(elapsed.Seconds())
}

// DerivativeDone records a finished slope or aspect computation.
func (p *Provider) DerivativeDone(kind string) {
	p.derivatives.WithLabelValues(kind).Inc()
}
