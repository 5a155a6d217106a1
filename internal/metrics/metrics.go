package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "soapgate"

var (
	SoapCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soap_calls_total",
			Help:      "Total number of SOAP calls, labeled by method and outcome (success or error level).",
		},
		[]string{"method", "outcome"},
	)

	SoapCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "soap_call_duration_seconds",
			Help:      "Latency of SOAP calls including normalization (seconds).",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	ConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Total number of attempts to build the SOAP client, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	EscalatedErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalated_errors_total",
			Help:      "Total number of error levels escalated to returned errors.",
		},
		[]string{"level"},
	)

	AuditWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_writes_total",
			Help:      "Total number of call audit writes, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of gateway requests rejected by the rate limiter.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		SoapCallsTotal,
		SoapCallDurationSeconds,
		ConnectAttemptsTotal,
		EscalatedErrorsTotal,
		AuditWritesTotal,
		RateLimitHitsTotal,
	)
}
