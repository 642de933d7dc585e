package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// MatchMetrics records match lifecycle transitions and persistence retries.
type MatchMetrics interface {
	RecordStateTransition(region sharedtypes.Region, state string)
	RecordScoreReport(region sharedtypes.Region)
	RecordRatingApplied(count int)
	RecordResolutionRetry()
	RecordResolutionExhausted()
	RecordOperationDuration(operation string, duration time.Duration)
}

type matchMetrics struct {
	transitions  *prometheus.CounterVec
	scoreReports *prometheus.CounterVec
	ratings      prometheus.Counter
	retries      prometheus.Counter
	exhausted    prometheus.Counter
	opDuration   *prometheus.HistogramVec
}

// NewMatchMetrics registers the match collectors on the given registry.
func NewMatchMetrics(reg prometheus.Registerer) MatchMetrics {
	m := &matchMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_match_state_transitions_total",
			Help: "Match state transitions by region and target state.",
		}, []string{"region", "state"}),
		scoreReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_match_score_reports_total",
			Help: "Accepted score reports by region.",
		}, []string{"region"}),
		ratings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchmaker_match_ratings_applied_total",
			Help: "Player rating updates written on resolution.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchmaker_match_resolution_retries_total",
			Help: "Retried resolution persistence writes.",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchmaker_match_resolution_exhausted_total",
			Help: "Resolutions that exhausted persistence retries.",
		}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchmaker_match_operation_duration_seconds",
			Help:    "Duration of match service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.transitions, m.scoreReports, m.ratings, m.retries, m.exhausted, m.opDuration)
	return m
}

func (m *matchMetrics) RecordStateTransition(region sharedtypes.Region, state string) {
	m.transitions.WithLabelValues(region.String(), state).Inc()
}

func (m *matchMetrics) RecordScoreReport(region sharedtypes.Region) {
	m.scoreReports.WithLabelValues(region.String()).Inc()
}

func (m *matchMetrics) RecordRatingApplied(count int) {
	m.ratings.Add(float64(count))
}

func (m *matchMetrics) RecordResolutionRetry() {
	m.retries.Inc()
}

func (m *matchMetrics) RecordResolutionExhausted() {
	m.exhausted.Inc()
}

func (m *matchMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// NoOpMatchMetrics satisfies MatchMetrics without recording anything.
type NoOpMatchMetrics struct{}

func (NoOpMatchMetrics) RecordStateTransition(sharedtypes.Region, string)    {}
func (NoOpMatchMetrics) RecordScoreReport(sharedtypes.Region)                {}
func (NoOpMatchMetrics) RecordRatingApplied(int)                             {}
func (NoOpMatchMetrics) RecordResolutionRetry()                              {}
func (NoOpMatchMetrics) RecordResolutionExhausted()                          {}
func (NoOpMatchMetrics) RecordOperationDuration(string, time.Duration)       {}
