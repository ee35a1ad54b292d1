package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	documentsLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfsplitter",
			Name:      "documents_loaded_total",
			Help:      "Total documents loaded into sessions",
		},
	)

	planMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplitter",
			Name:      "plan_mutations_total",
			Help:      "Plan mutations by operation (add, remove, relabel, recolor, clear, undo, redo, replace, rotate)",
		},
		[]string{"op"},
	)

	splitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplitter",
			Name:      "splits_total",
			Help:      "Finished split runs by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	splitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfsplitter",
			Name:      "split_duration_seconds",
			Help:      "Duration of split runs by strategy",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	splitOutputs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfsplitter",
			Name:      "split_outputs_total",
			Help:      "Total output documents produced by splits",
		},
	)

	oracleReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplitter",
			Name:      "oracle_requests_total",
			Help:      "Suggestion oracle requests by provider and result",
		},
		[]string{"provider", "result"},
	)

	oracleLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfsplitter",
			Name:      "oracle_request_duration_seconds",
			Help:      "Duration of suggestion oracle requests by provider",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfsplitter",
			Name:      "active_sessions",
			Help:      "Sessions currently alive",
		},
	)

	artifactBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsplitter",
			Name:      "artifact_bytes_total",
			Help:      "Bytes written to artifact storage by backend",
		},
		[]string{"backend"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(documentsLoaded, planMutations, splitsTotal, splitDuration, splitOutputs, oracleReqs, oracleLatency, activeSessions, artifactBytes)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func DocumentLoaded() { documentsLoaded.Inc() }

func PlanMutation(op string) { planMutations.WithLabelValues(op).Inc() }

func SplitFinished(strategy, result string, dur time.Duration) {
	splitsTotal.WithLabelValues(strategy, result).Inc()
	splitDuration.WithLabelValues(strategy).Observe(dur.Seconds())
}

func AddSplitOutputs(n int) { splitOutputs.Add(float64(n)) }

func OracleRequest(provider, result string, dur time.Duration) {
	oracleReqs.WithLabelValues(provider, result).Inc()
	oracleLatency.WithLabelValues(provider).Observe(dur.Seconds())
}

func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

func AddArtifactBytes(backend string, n int) { artifactBytes.WithLabelValues(backend).Add(float64(n)) }
