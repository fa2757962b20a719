package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the analysis pipeline
type Metrics struct {
	AnalysesTotal   *prometheus.CounterVec
	CreditsCharged  prometheus.Counter
	CreditsRefunded prometheus.Counter
	GatewayLatency  prometheus.Histogram
}

// New registers and returns the application metrics
func New() *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recalliq",
			Name:      "analyses_total",
			Help:      "Number of analysis runs by action and outcome",
		}, []string{"action", "outcome"}),
		CreditsCharged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "recalliq",
			Name:      "credits_charged_total",
			Help:      "Total credits debited from user balances",
		}),
		CreditsRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "recalliq",
			Name:      "credits_refunded_total",
			Help:      "Total credits refunded after failed analyses",
		}),
		GatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recalliq",
			Name:      "gateway_latency_seconds",
			Help:      "Latency of AI gateway calls",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
}
