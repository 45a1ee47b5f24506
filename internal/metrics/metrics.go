package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the prometheus collectors exported by the bot.
type Metrics struct {
	Turns               *prometheus.CounterVec
	TurnLatency         prometheus.Histogram
	ClassifierRequests  *prometheus.CounterVec
	ClassifierLatency   prometheus.Histogram
	ClassifierOverrides *prometheus.CounterVec
	Transfers           *prometheus.CounterVec
	Disqualifications   *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	ExpiredSessions     prometheus.Counter
	RateLimited         prometheus.Counter
	Errors              *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns processed, by routed label.",
		}, []string{"label"}),
		TurnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent processing one conversation turn.",
			Buckets:   prometheus.DefBuckets,
		}),
		ClassifierRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_requests_total",
			Help:      "Fallback classifier predictions, by outcome.",
		}, []string{"outcome"}),
		ClassifierLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_duration_seconds",
			Help:      "Fallback classifier prediction latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
		ClassifierOverrides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_overrides_total",
			Help:      "Turns whose label was taken from the classifier, by predicted label.",
		}, []string{"label"}),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Fund transfer attempts, by outcome.",
		}, []string{"outcome"}),
		Disqualifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disqualifications_total",
			Help:      "Flows aborted on a business rule, by flow and product.",
		}, []string{"flow", "product"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held by the in-memory store.",
		}),
		ExpiredSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_sessions_total",
			Help:      "Sessions dropped after the idle timeout.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_turns_total",
			Help:      "Turns rejected by the per-session rate limit.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Collaborator failures, by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.Turns,
		m.TurnLatency,
		m.ClassifierRequests,
		m.ClassifierLatency,
		m.ClassifierOverrides,
		m.Transfers,
		m.Disqualifications,
		m.ActiveSessions,
		m.ExpiredSessions,
		m.RateLimited,
		m.Errors,
	)
	return m
}

// NewUnregistered returns collectors that are not exported anywhere. Used by
// tests and the terminal chat command.
func NewUnregistered(namespace string) *Metrics {
	return New(namespace, prometheus.NewRegistry())
}
