package monitoring

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat pipeline.
type ChatMetrics struct {
	messagesTotal    *prometheus.CounterVec
	detectionsTotal  *prometheus.CounterVec
	responseLatency  prometheus.Histogram
	ctaSelectedTotal *prometheus.CounterVec
	assignmentsTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engage",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat messages by processing status",
		}, []string{"status"}),
		detectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engage",
			Subsystem: "chat",
			Name:      "language_detections_total",
			Help:      "Total language resolutions by language and source",
		}, []string{"language", "source"}),
		responseLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "engage",
			Subsystem: "chat",
			Name:      "response_latency_seconds",
			Help:      "Latency of reply generation",
			Buckets:   prometheus.DefBuckets,
		}),
		ctaSelectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engage",
			Subsystem: "chat",
			Name:      "cta_selected_total",
			Help:      "Total call-to-action selections by type",
		}, []string{"cta_type"}),
		assignmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engage",
			Subsystem: "experiments",
			Name:      "assignments_total",
			Help:      "Total experiment variant assignments",
		}, []string{"experiment", "variant"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.detectionsTotal, m.responseLatency,
		m.ctaSelectedTotal, m.assignmentsTotal)
	return m
}

func (m *ChatMetrics) ObserveMessage(status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveDetection(language, source string) {
	if m == nil {
		return
	}
	m.detectionsTotal.WithLabelValues(language, source).Inc()
}

func (m *ChatMetrics) ObserveResponseLatency(seconds float64) {
	if m == nil {
		return
	}
	m.responseLatency.Observe(seconds)
}

func (m *ChatMetrics) ObserveCTASelected(ctaType string) {
	if m == nil {
		return
	}
	m.ctaSelectedTotal.WithLabelValues(ctaType).Inc()
}

func (m *ChatMetrics) ObserveAssignment(experiment, variant string) {
	if m == nil {
		return
	}
	m.assignmentsTotal.WithLabelValues(experiment, variant).Inc()
}
