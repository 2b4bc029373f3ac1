package metrics

import "github.com/prometheus/client_golang/prometheus"

// MessagingMetrics exposes counters/histograms for WhatsApp messaging flows.
type MessagingMetrics struct {
	inboundTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	statusTotal       *prometheus.CounterVec
	templateSyncTotal *prometheus.CounterVec
	webhookLatency    *prometheus.HistogramVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadwire",
			Subsystem: "whatsapp",
			Name:      "inbound_messages_total",
			Help:      "Total inbound WhatsApp messages by type and processing outcome",
		}, []string{"message_type", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadwire",
			Subsystem: "whatsapp",
			Name:      "outbound_messages_total",
			Help:      "Total outbound WhatsApp sends by kind and outcome",
		}, []string{"kind", "status"}),
		statusTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadwire",
			Subsystem: "whatsapp",
			Name:      "status_updates_total",
			Help:      "Total WhatsApp delivery status receipts",
		}, []string{"status", "applied"}),
		templateSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadwire",
			Subsystem: "whatsapp",
			Name:      "template_sync_total",
			Help:      "Template reconciliation runs by result",
		}, []string{"result"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadwire",
			Subsystem: "whatsapp",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"field"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.statusTotal, m.templateSyncTotal, m.webhookLatency)
	return m
}

func (m *MessagingMetrics) ObserveInbound(messageType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType, status).Inc()
}

func (m *MessagingMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *MessagingMetrics) ObserveStatusUpdate(status string, applied bool) {
	if m == nil {
		return
	}
	label := "false"
	if applied {
		label = "true"
	}
	m.statusTotal.WithLabelValues(status, label).Inc()
}

func (m *MessagingMetrics) ObserveTemplateSync(result string) {
	if m == nil {
		return
	}
	m.templateSyncTotal.WithLabelValues(result).Inc()
}

func (m *MessagingMetrics) ObserveWebhookLatency(field string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(field).Observe(seconds)
}
