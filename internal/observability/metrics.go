// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Source adapter metrics
	SourceFetches    *prometheus.CounterVec
	SourceLatency    *prometheus.HistogramVec
	RecordsDropped   *prometheus.CounterVec
	PushFeedFallback prometheus.Counter

	// Token pipeline metrics
	TokensAggregated *prometheus.CounterVec
	TokensScored     prometheus.Counter
	SecurityVetoes   prometheus.Counter
	SecurityMisses   prometheus.Counter

	// Co-buy metrics
	WalletCollectFailures prometheus.Counter
	CoBuyAlertsEmitted    prometheus.Counter
	RuleStoreFallbacks    prometheus.Counter

	// Cycle metrics
	CycleRunsTotal *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec

	// Storage / delivery metrics
	StoreErrors  *prometheus.CounterVec
	NotifyErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCycle *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg registers on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "meme_radar"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		SourceFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Source adapter calls by outcome (ok, empty, error, unsupported)",
		}, []string{"source", "op", "outcome"}),
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Source adapter call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "op"}),
		RecordsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "records_dropped_total",
			Help:      "Upstream records dropped because they failed normalization",
		}, []string{"source"}),
		PushFeedFallback: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "push_fallbacks_total",
			Help:      "New-view fetches that fell back from the push feed to polling",
		}),

		TokensAggregated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "aggregated_total",
			Help:      "Canonical tokens returned by the aggregator",
		}, []string{"view"}),
		TokensScored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "scored_total",
			Help:      "Tokens passed through the scorer",
		}),
		SecurityVetoes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "security_vetoes_total",
			Help:      "Tokens zeroed by the honeypot veto",
		}),
		SecurityMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "security_unavailable_total",
			Help:      "Tokens scored with the neutral security default",
		}),

		WalletCollectFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cobuy",
			Name:      "wallet_collect_failures_total",
			Help:      "Per-wallet activity collections that failed",
		}),
		CoBuyAlertsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cobuy",
			Name:      "alerts_emitted_total",
			Help:      "Co-buy alerts emitted",
		}),
		RuleStoreFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cobuy",
			Name:      "rule_store_fallbacks_total",
			Help:      "Cycles that ran on default rules",
		}),

		CycleRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Total number of cycles by pipeline and status",
		}, []string{"pipeline", "status"}),
		CycleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"pipeline"}),

		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Best-effort storage writes that failed",
		}, []string{"store", "operation"}),
		NotifyErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "errors_total",
			Help:      "Notification deliveries that failed",
		}, []string{"kind"}),

		LastSuccessfulCycle: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful cycle",
		}, []string{"pipeline"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordSourceFetch records one adapter call.
func RecordSourceFetch(source, op, outcome string, seconds float64) {
	DefaultMetrics.SourceFetches.WithLabelValues(source, op, outcome).Inc()
	DefaultMetrics.SourceLatency.WithLabelValues(source, op).Observe(seconds)
}

// RecordDropped records n malformed upstream records.
func RecordDropped(source string, n int) {
	if n > 0 {
		DefaultMetrics.RecordsDropped.WithLabelValues(source).Add(float64(n))
	}
}

// RecordPushFallback records a push-to-poll fallback.
func RecordPushFallback() {
	DefaultMetrics.PushFeedFallback.Inc()
}

// RecordAggregated records tokens returned for a view.
func RecordAggregated(view string, n int) {
	DefaultMetrics.TokensAggregated.WithLabelValues(view).Add(float64(n))
}

// RecordScored records one scored token.
func RecordScored(vetoed, securityMissing bool) {
	DefaultMetrics.TokensScored.Inc()
	if vetoed {
		DefaultMetrics.SecurityVetoes.Inc()
	}
	if securityMissing {
		DefaultMetrics.SecurityMisses.Inc()
	}
}

// RecordWalletFailure records a failed wallet collection.
func RecordWalletFailure() {
	DefaultMetrics.WalletCollectFailures.Inc()
}

// RecordAlerts records emitted co-buy alerts.
func RecordAlerts(n int) {
	DefaultMetrics.CoBuyAlertsEmitted.Add(float64(n))
}

// RecordRuleFallback records a cycle that used default rules.
func RecordRuleFallback() {
	DefaultMetrics.RuleStoreFallbacks.Inc()
}

// RecordStoreError records a failed best-effort write.
func RecordStoreError(store, operation string) {
	DefaultMetrics.StoreErrors.WithLabelValues(store, operation).Inc()
}

// RecordNotifyError records a failed notification.
func RecordNotifyError(kind string) {
	DefaultMetrics.NotifyErrors.WithLabelValues(kind).Inc()
}

// RecordCycle records a finished cycle.
func RecordCycle(pipeline, status string, durationSeconds float64, finishedUnix int64) {
	DefaultMetrics.CycleRunsTotal.WithLabelValues(pipeline, status).Inc()
	DefaultMetrics.CycleDuration.WithLabelValues(pipeline).Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulCycle.WithLabelValues(pipeline).Set(float64(finishedUnix))
	}
}
