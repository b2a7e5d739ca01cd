// Package metrics exposes Prometheus instrumentation for the note store and feeds.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/nuage/internal/apperr"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	notes         prometheus.Gauge
	migrated      prometheus.Counter
	feedEvents    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nuage",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Note store operations by name and outcome.",
		}, []string{"op", "result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nuage",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of note store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"op"}),
		notes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nuage",
			Name:      "notes",
			Help:      "Number of notes in the last loaded or saved collection.",
		}),
		migrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nuage",
			Subsystem: "store",
			Name:      "legacy_notes_migrated_total",
			Help:      "Notes moved from the legacy key.",
		}),
		feedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nuage",
			Subsystem: "widget",
			Name:      "events_total",
			Help:      "Widget feed events published, by type.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(
		m.storeOps, m.storeDuration, m.notes, m.migrated, m.feedEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(op string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(op, result(err)).Inc()
	m.storeDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetNoteCount records the size of the collection.
func (m *Metrics) SetNoteCount(n int) { m.notes.Set(float64(n)) }

// LegacyMigrated counts notes moved off the legacy key.
func (m *Metrics) LegacyMigrated(n int) { m.migrated.Add(float64(n)) }

// FeedEvent counts one published widget event.
func (m *Metrics) FeedEvent(eventType string) { m.feedEvents.WithLabelValues(eventType).Inc() }

func result(err error) string {
	if err == nil {
		return "ok"
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "error"
}
