// Package metrics exposes render counters and latencies to Prometheus.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrlokans/cancionero/internal/layout"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/render"
)

const namespace = "cancionero"

// Error kinds reported in the errors_total counter.
const (
	KindUnrenderable = "unrenderable_line"
	KindDeviceIO     = "device_io"
	KindTheme        = "incomplete_theme"
	KindNotFound     = "not_found"
	KindCanceled     = "canceled"
	KindOther        = "other"
)

type Metrics struct {
	renders  *prometheus.CounterVec
	pages    *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	songs    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Completed renders by document kind and format.",
		}, []string{"kind", "format"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages written by format.",
		}, []string{"format"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Failed renders by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render latency by document kind.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"kind"}),
		songs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_songs",
			Help:      "Songs in the catalog by locale.",
		}, []string{"locale"}),
	}
	reg.MustRegister(m.renders, m.pages, m.errors, m.duration, m.songs)
	return m
}

// ErrorKind classifies err for the errors_total counter.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, layout.ErrUnrenderableLine):
		return KindUnrenderable
	case errors.Is(err, layout.ErrDeviceIO):
		return KindDeviceIO
	case errors.Is(err, render.ErrIncompleteTheme):
		return KindTheme
	case errors.Is(err, library.ErrSongNotFound), errors.Is(err, library.ErrLocaleNotAvailable):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindOther
	}
}

// ObserveRender records one render. A nil receiver records nothing.
func (m *Metrics) ObserveRender(kind, format string, pages int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		m.errors.WithLabelValues(ErrorKind(err)).Inc()
		return
	}
	m.renders.WithLabelValues(kind, format).Inc()
	m.pages.WithLabelValues(format).Add(float64(pages))
}

// SetCatalogSize records the number of catalog songs of locale.
func (m *Metrics) SetCatalogSize(locale string, n int) {
	if m == nil {
		return
	}
	m.songs.WithLabelValues(locale).Set(float64(n))
}
