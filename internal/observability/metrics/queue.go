// Package metrics defines the per-module metrics contracts plus their
// prometheus and no-op implementations. Services depend on the interfaces so
// tests can pass the no-op variants.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// QueueMetrics records queue facade and region pool activity.
type QueueMetrics interface {
	RecordJoinAttempt(region sharedtypes.Region)
	RecordJoinRejected(region sharedtypes.Region, reason string)
	RecordLeave(region sharedtypes.Region)
	RecordTimeout(region sharedtypes.Region)
	SetPoolDepth(region sharedtypes.Region, depth int)
}

type queueMetrics struct {
	joinAttempts *prometheus.CounterVec
	joinRejected *prometheus.CounterVec
	leaves       *prometheus.CounterVec
	timeouts     *prometheus.CounterVec
	poolDepth    *prometheus.GaugeVec
}

// NewQueueMetrics registers the queue collectors on the given registry.
func NewQueueMetrics(reg prometheus.Registerer) QueueMetrics {
	m := &queueMetrics{
		joinAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_queue_join_attempts_total",
			Help: "Queue join attempts by region.",
		}, []string{"region"}),
		joinRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_queue_join_rejected_total",
			Help: "Rejected queue joins by region and reason.",
		}, []string{"region", "reason"}),
		leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_queue_leaves_total",
			Help: "Voluntary queue leaves by region.",
		}, []string{"region"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchmaker_queue_timeouts_total",
			Help: "Queue entries expired by the wait deadline.",
		}, []string{"region"}),
		poolDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matchmaker_queue_pool_depth",
			Help: "Players currently waiting, by region.",
		}, []string{"region"}),
	}
	reg.MustRegister(m.joinAttempts, m.joinRejected, m.leaves, m.timeouts, m.poolDepth)
	return m
}

func (m *queueMetrics) RecordJoinAttempt(region sharedtypes.Region) {
	m.joinAttempts.WithLabelValues(region.String()).Inc()
}

func (m *queueMetrics) RecordJoinRejected(region sharedtypes.Region, reason string) {
	m.joinRejected.WithLabelValues(region.String(), reason).Inc()
}

func (m *queueMetrics) RecordLeave(region sharedtypes.Region) {
	m.leaves.WithLabelValues(region.String()).Inc()
}

func (m *queueMetrics) RecordTimeout(region sharedtypes.Region) {
	m.timeouts.WithLabelValues(region.String()).Inc()
}

func (m *queueMetrics) SetPoolDepth(region sharedtypes.Region, depth int) {
	m.poolDepth.WithLabelValues(region.String()).Set(float64(depth))
}

// NoOpQueueMetrics satisfies QueueMetrics without recording anything.
type NoOpQueueMetrics struct{}

func (NoOpQueueMetrics) RecordJoinAttempt(sharedtypes.Region)         {}
func (NoOpQueueMetrics) RecordJoinRejected(sharedtypes.Region, string) {}
func (NoOpQueueMetrics) RecordLeave(sharedtypes.Region)               {}
func (NoOpQueueMetrics) RecordTimeout(sharedtypes.Region)             {}
func (NoOpQueueMetrics) SetPoolDepth(sharedtypes.Region, int)         {}
