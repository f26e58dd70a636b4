package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the concierge flows.
type ConversationMetrics struct {
	turnsTotal        *prometheus.CounterVec
	extractorFallback prometheus.Counter
	llmFailures       *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	retrievalLatency  prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"intent"}),
		extractorFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "extract",
			Name:      "fallback_total",
			Help:      "Slot extractions served by the pattern tier",
		}),
		llmFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "llm",
			Name:      "failures_total",
			Help:      "LLM call failures by operation",
		}, []string{"op"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Booking attempts by terminal status",
		}, []string{"status"}),
		retrievalLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "rag",
			Name:      "retrieval_seconds",
			Help:      "Latency of corpus retrieval per turn",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.extractorFallback, m.llmFailures, m.bookingsTotal, m.retrievalLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(intent string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent).Inc()
}

// ObserveExtractorFallback satisfies extract.FallbackObserver.
func (m *ConversationMetrics) ObserveExtractorFallback() {
	if m == nil {
		return
	}
	m.extractorFallback.Inc()
}

func (m *ConversationMetrics) ObserveLLMFailure(op string) {
	if m == nil {
		return
	}
	m.llmFailures.WithLabelValues(op).Inc()
}

func (m *ConversationMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveRetrievalLatency(seconds float64) {
	if m == nil {
		return
	}
	m.retrievalLatency.Observe(seconds)
}
