package observability

import (
	"time"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the loan assistant.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	llmDuration     *prometheus.HistogramVec
	llmCalls        *prometheus.CounterVec
	llmErrors       *prometheus.CounterVec
	messagesTotal   *prometheus.CounterVec
	intentsTotal    *prometheus.CounterVec
	outcomesTotal   *prometheus.CounterVec
	sessionsStarted prometheus.Counter
	sessionsEvicted prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanease_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanease_llm_duration_seconds",
				Help:    "Duration of LLM calls by call type.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"call"},
		),
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanease_llm_calls_total",
				Help: "Total LLM calls by call type.",
			},
			[]string{"call"},
		),
		llmErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanease_llm_errors_total",
				Help: "Total failed LLM calls by call type.",
			},
			[]string{"call"},
		),
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanease_messages_total",
				Help: "Chat messages processed, by conversation step.",
			},
			[]string{"step"},
		),
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanease_intents_total",
				Help: "Classified intents.",
			},
			[]string{"intent"},
		),
		outcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanease_application_outcomes_total",
				Help: "Terminal application outcomes.",
			},
			[]string{"status"},
		),
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanease_sessions_started_total",
			Help: "Conversation sessions initialized.",
		}),
		sessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanease_sessions_evicted_total",
			Help: "Sessions evicted by capacity or idleness.",
		}),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordLLMCall records one LLM call with its duration and outcome.
func (m *Metrics) RecordLLMCall(call string, d time.Duration, err error) {
	m.llmCalls.WithLabelValues(call).Inc()
	m.llmDuration.WithLabelValues(call).Observe(d.Seconds())
	if err != nil {
		m.llmErrors.WithLabelValues(call).Inc()
	}
}

// IncrMessage counts a processed chat message at the given step.
func (m *Metrics) IncrMessage(step domain.Step) {
	m.messagesTotal.WithLabelValues(string(step)).Inc()
}

// IncrIntent counts a classified intent.
func (m *Metrics) IncrIntent(intent domain.Intent) {
	m.intentsTotal.WithLabelValues(string(intent)).Inc()
}

// IncrOutcome counts a terminal application outcome (approved, rejected,
// sanctioned).
func (m *Metrics) IncrOutcome(status domain.AppStatus) {
	m.outcomesTotal.WithLabelValues(string(status)).Inc()
}

// IncrSessionStarted counts a newly initialized session.
func (m *Metrics) IncrSessionStarted() {
	m.sessionsStarted.Inc()
}

// IncrSessionEvicted counts an evicted session.
func (m *Metrics) IncrSessionEvicted() {
	m.sessionsEvicted.Inc()
}

// FunnelSnapshot returns cumulative funnel counters suitable for the
// GET /v1/metrics/funnel endpoint.
func (m *Metrics) FunnelSnapshot() *domain.FunnelMetrics {
	var messages float64
	for _, step := range []domain.Step{
		domain.StepGreeting, domain.StepIdentification, domain.StepNeedsAssessment,
		domain.StepOfferPresentation, domain.StepVerification, domain.StepUnderwriting,
		domain.StepDecision, domain.StepSanction, domain.StepClosed,
	} {
		messages += getCounterValue(m.messagesTotal, string(step))
	}

	var calls, errors float64
	for _, call := range []string{"generate", "extract", "classify"} {
		calls += getCounterValue(m.llmCalls, call)
		errors += getCounterValue(m.llmErrors, call)
	}
	errorRate := float64(0)
	if calls > 0 {
		errorRate = errors / calls
	}

	return &domain.FunnelMetrics{
		SessionsStarted: int64(counterValue(m.sessionsStarted)),
		MessagesHandled: int64(messages),
		Approvals:       int64(getCounterValue(m.outcomesTotal, string(domain.StatusApproved))),
		Rejections:      int64(getCounterValue(m.outcomesTotal, string(domain.StatusRejected))),
		Sanctions:       int64(getCounterValue(m.outcomesTotal, string(domain.StatusSanctioned))),
		LLMErrorRate:    errorRate,
		SessionsEvicted: int64(counterValue(m.sessionsEvicted)),
		Period:          "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
