package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ModerationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "togetherly",
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Moderation gate outcomes by status and reason.",
		},
		[]string{"outcome", "reason"},
	)

	ScorerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "togetherly",
			Subsystem: "moderation",
			Name:      "scorer_requests_total",
			Help:      "Calls to the toxicity scorer by result.",
		},
		[]string{"result"},
	)

	ScorerLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "togetherly",
			Subsystem: "moderation",
			Name:      "scorer_latency_seconds",
			Help:      "Latency of toxicity scorer calls.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "togetherly",
			Subsystem: "chat",
			Name:      "messages_sent_total",
			Help:      "Direct messages written to threads.",
		},
	)

	ActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "togetherly",
			Subsystem: "realtime",
			Name:      "active_subscriptions",
			Help:      "Open websocket subscriptions.",
		},
	)
)

func init() {
	prometheus.MustRegister(ModerationDecisions)
	prometheus.MustRegister(ScorerRequests)
	prometheus.MustRegister(ScorerLatency)
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(ActiveSubscriptions)
}
