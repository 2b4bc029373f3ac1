package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMessagingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMessagingMetrics(reg)
	m.ObserveInbound("text", "processed")
	m.ObserveOutbound("template", "sent")
	m.ObserveStatusUpdate("delivered", true)
	m.ObserveTemplateSync("synced")
	m.ObserveWebhookLatency("messages", 0.5)
}

func TestMessagingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMessagingMetrics(reg)
	m.ObserveStatusUpdate("read", false)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "leadwire_whatsapp_status_updates_total" {
			found = true
		}
	}
	if !found {
		t.Error("status_updates_total not registered")
	}
}

func TestMessagingMetricsNilSafe(t *testing.T) {
	var m *MessagingMetrics
	m.ObserveInbound("text", "processed")
	m.ObserveOutbound("text", "failed")
	m.ObserveStatusUpdate("sent", true)
	m.ObserveTemplateSync("error")
	m.ObserveWebhookLatency("statuses", 0.1)
}
