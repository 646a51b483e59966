package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	asksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localqa",
			Subsystem: "orchestrator",
			Name:      "asks_total",
			Help:      "Total number of asks by outcome",
		},
		[]string{"outcome"},
	)

	loadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localqa",
			Subsystem: "orchestrator",
			Name:      "model_load_duration_seconds",
			Help:      "Duration of model loads in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"result"},
	)

	generatedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "localqa",
			Subsystem: "orchestrator",
			Name:      "generated_tokens_total",
			Help:      "Total number of fragments consumed from the model",
		},
	)

	askInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "localqa",
			Subsystem: "orchestrator",
			Name:      "inflight_asks",
			Help:      "Asks currently loading or generating",
		},
	)
)

func init() {
	prometheus.MustRegister(asksTotal, loadDuration, generatedTokens, askInflight)
}

// outcomeLabel maps an outcome to its metric label; rejected submissions use
// "rejected".
func outcomeLabel(o Outcome) string {
	if o == OutcomeNone {
		return "rejected"
	}
	return string(o)
}
