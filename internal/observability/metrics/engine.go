package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// EngineMetrics records matching engine passes and outcomes.
type EngineMetrics interface {
	RecordPass(region sharedtypes.Region, duration time.Duration)
	RecordMatchFormed(region sharedtypes.Region, spread sharedtypes.Rating)
	RecordStaleRetry(region sharedtypes.Region)
}

type engineMetrics struct {
	passDuration *prometheus.HistogramVec
	formed       *prometheus.CounterVec
	spread       *prometheus.HistogramVec
	staleRetries *prometheus.CounterVec
}

// NewEngineMetrics registers the engine collectors on the given registry.
func NewEngineMetrics(reg prometheus.Registerer) EngineMetrics {
	m := &engineMetrics{
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchmaker_engine_pass_duration_seconds",
			Help:    "Duration of one matching pass over a region pool.",
			Buckets: prometheus.DefBuckets,
		}, []string{"region"}),
		formed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_engine_matches_formed_total",
			Help: "Matches formed by region.",
		}, []string{"region"}),
		spread: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchmaker_engine_match_spread",
			Help:    "Rating spread of formed matches.",
			Buckets: []float64{25, 50, 100, 200, 400, 800},
		}, []string{"region"}),
		staleRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_engine_stale_retries_total",
			Help: "Pairing retries caused by stale pool snapshots.",
		}, []string{"region"}),
	}
	reg.MustRegister(m.passDuration, m.formed, m.spread, m.staleRetries)
	return m
}

func (m *engineMetrics) RecordPass(region sharedtypes.Region, duration time.Duration) {
	m.passDuration.WithLabelValues(region.String()).Observe(duration.Seconds())
}

func (m *engineMetrics) RecordMatchFormed(region sharedtypes.Region, spread sharedtypes.Rating) {
	m.formed.WithLabelValues(region.String()).Inc()
	m.spread.WithLabelValues(region.String()).Observe(float64(spread))
}

func (m *engineMetrics) RecordStaleRetry(region sharedtypes.Region) {
	m.staleRetries.WithLabelValues(region.String()).Inc()
}

// NoOpEngineMetrics satisfies EngineMetrics without recording anything.
type NoOpEngineMetrics struct{}

func (NoOpEngineMetrics) RecordPass(sharedtypes.Region, time.Duration)              {}
func (NoOpEngineMetrics) RecordMatchFormed(sharedtypes.Region, sharedtypes.Rating)  {}
func (NoOpEngineMetrics) RecordStaleRetry(sharedtypes.Region)                       {}
