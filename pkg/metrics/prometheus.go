package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SignalDesk/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal      *prometheus.CounterVec
	technicalScore    *prometheus.GaugeVec
	channelDeliveries *prometheus.CounterVec
	fetchesTotal      *prometheus.CounterVec
	fetchLatency      *prometheus.HistogramVec
	workflowRuns      *prometheus.CounterVec
	workflowLatency   *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_signals_total",
				Help: "Total signals generated by symbol and action",
			},
			[]string{"symbol", "action"},
		),
		technicalScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_technical_score",
				Help: "Last technical score per symbol",
			},
			[]string{"symbol"},
		),
		channelDeliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_channel_deliveries_total",
				Help: "Channel delivery attempts by outcome",
			},
			[]string{"channel", "outcome"},
		),
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_market_fetches_total",
				Help: "Market data lookups by kind and cache outcome",
			},
			[]string{"kind", "cache"},
		),
		fetchLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_market_fetch_seconds",
				Help:    "Market data lookup duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		workflowRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_workflow_runs_total",
				Help: "Workflow runs by symbol and outcome",
			},
			[]string{"symbol", "outcome"},
		),
		workflowLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_workflow_duration_seconds",
				Help:    "End-to-end workflow run duration",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_errors_total",
				Help: "Total errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordSignal records a generated signal.
func (r *Recorder) RecordSignal(symbol string, action models.Action) {
	r.signalsTotal.WithLabelValues(symbol, string(action)).Inc()
}

// RecordTechnicalScore records the last technical score for a symbol.
func (r *Recorder) RecordTechnicalScore(symbol string, score float64) {
	r.technicalScore.WithLabelValues(symbol).Set(score)
}

// RecordChannelDelivery records a channel delivery attempt.
func (r *Recorder) RecordChannelDelivery(channel models.ChannelKey, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.channelDeliveries.WithLabelValues(string(channel), outcome).Inc()
}

// RecordFetch records a market data lookup and its latency.
func (r *Recorder) RecordFetch(kind string, cacheHit bool, seconds float64) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	r.fetchesTotal.WithLabelValues(kind, cache).Inc()
	r.fetchLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordWorkflowRun records a workflow run outcome and duration.
func (r *Recorder) RecordWorkflowRun(symbol string, success bool, seconds float64) {
	outcome := "completed"
	if !success {
		outcome = "failed"
	}
	r.workflowRuns.WithLabelValues(symbol, outcome).Inc()
	r.workflowLatency.WithLabelValues(symbol).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
