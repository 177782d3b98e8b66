package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ModelClientMetrics groups the Prometheus instruments recorded by the model
// client. Construct one per process with NewModelClientMetrics; a nil
// receiver disables recording, so tests need not register collectors.
type ModelClientMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	PromptTokens     *prometheus.HistogramVec
	CompletionTokens *prometheus.HistogramVec
}

// NewModelClientMetrics registers the model-client instruments on reg.
//
// Precondition: reg must not be nil; call at most once per registerer.
func NewModelClientMetrics(reg prometheus.Registerer) *ModelClientMetrics {
	factory := promauto.With(reg)
	return &ModelClientMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worldforge_model_requests_total",
				Help: "Total number of model provider requests.",
			},
			[]string{"provider", "model", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldforge_model_request_duration_seconds",
				Help:    "Histogram of model provider request durations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		PromptTokens: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldforge_model_prompt_tokens",
				Help:    "Histogram of prompt token counts.",
				Buckets: prometheus.LinearBuckets(250, 250, 20),
			},
			[]string{"provider", "model"},
		),
		CompletionTokens: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worldforge_model_completion_tokens",
				Help:    "Histogram of completion token counts.",
				Buckets: prometheus.LinearBuckets(100, 100, 20),
			},
			[]string{"provider", "model"},
		),
	}
}

// ObserveRequest records one completed provider request.
//
// Postcondition: no-op on a nil receiver.
func (m *ModelClientMetrics) ObserveRequest(provider, model, status string, seconds float64, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(provider, model, status).Inc()
	m.RequestDuration.WithLabelValues(provider, model).Observe(seconds)
	if promptTokens > 0 {
		m.PromptTokens.WithLabelValues(provider, model).Observe(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.CompletionTokens.WithLabelValues(provider, model).Observe(float64(completionTokens))
	}
}
