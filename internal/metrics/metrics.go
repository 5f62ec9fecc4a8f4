// Package metrics exposes Prometheus instrumentation for shortening,
// resolution and hit recording.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shortlink"

// Resolution outcomes.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Shorten failure reasons.
const (
	ReasonInvalidURL       = "invalid_url"
	ReasonInsertFailed     = "insert_failed"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonGeneration       = "generation"
)

type Metrics struct {
	shortened        prometheus.Counter
	shortenFailures  *prometheus.CounterVec
	collisions       prometheus.Counter
	resolutions      *prometheus.CounterVec
	hitWrites        *prometheus.CounterVec
	hitWriteDuration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		shortened: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_shortened_total",
			Help:      "Short codes successfully stored.",
		}),
		shortenFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shorten_failures_total",
			Help:      "Shorten requests that did not produce a short code.",
		}, []string{"reason"}),
		collisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_code_collisions_total",
			Help:      "Generated short codes rejected by the unique constraint.",
		}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Short code resolution attempts.",
		}, []string{"outcome"}),
		hitWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hit_writes_total",
			Help:      "Metadata hit upserts.",
		}, []string{"status"}),
		hitWriteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hit_write_duration_seconds",
			Help:      "Time spent on a metadata hit upsert.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) URLShortened() {
	m.shortened.Inc()
}

func (m *Metrics) ShortenFailed(reason string) {
	m.shortenFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ShortCodeCollision() {
	m.collisions.Inc()
}

func (m *Metrics) URLResolved(outcome string) {
	m.resolutions.WithLabelValues(outcome).Inc()
}

// Hit write statuses.
const (
	HitStatusOK      = "ok"
	HitStatusError   = "error"
	HitStatusDropped = "dropped"
)

// HitRecorded observes one metadata upsert.
func (m *Metrics) HitRecorded(d time.Duration, err error) {
	status := HitStatusOK
	if err != nil {
		status = HitStatusError
	}

	m.hitWrites.WithLabelValues(status).Inc()
	m.hitWriteDuration.Observe(d.Seconds())
}

// HitDropped counts a hit that was discarded without reaching the store.
func (m *Metrics) HitDropped() {
	m.hitWrites.WithLabelValues(HitStatusDropped).Inc()
}
