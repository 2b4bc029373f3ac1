package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/internal/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

const (
	inboundCounterName  = "leadwire_whatsapp_inbound_messages_total"
	outboundCounterName = "leadwire_whatsapp_outbound_messages_total"
)

type connectionVerifier interface {
	VerifyConnection(ctx context.Context, creds whatsapp.Credentials) whatsapp.ConnectionStatus
}

// WhatsAppStatusHandler reports whether a tenant's WhatsApp connection is
// healthy, alongside process-level message counters.
type WhatsAppStatusHandler struct {
	verifier    connectionVerifier
	credentials integrations.CredentialSource
	gatherer    prometheus.Gatherer
	logger      *logging.Logger
}

func NewWhatsAppStatusHandler(verifier connectionVerifier, credentials integrations.CredentialSource, gatherer prometheus.Gatherer, logger *logging.Logger) *WhatsAppStatusHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppStatusHandler{
		verifier:    verifier,
		credentials: credentials,
		gatherer:    gatherer,
		logger:      logger,
	}
}

// HandleStatus processes GET /api/whatsapp/status. A tenant without
// credentials gets a disconnected report, not an error.
func (h *WhatsAppStatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := tenancy.TenantIDFromContext(ctx)
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	status := h.connectionStatus(ctx, tenantID)

	writeJSON(w, http.StatusOK, map[string]any{
		"connected":         status.Connected,
		"message":           status.Message,
		"inbound_messages":  h.sumCounter(inboundCounterName),
		"outbound_messages": h.sumCounter(outboundCounterName),
	})
}

func (h *WhatsAppStatusHandler) connectionStatus(ctx context.Context, tenantID string) whatsapp.ConnectionStatus {
	if h.credentials == nil || h.verifier == nil {
		return whatsapp.ConnectionStatus{Connected: false, Message: "whatsapp integration not configured"}
	}

	creds, err := h.credentials.CredentialsForTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, integrations.ErrNotConfigured) {
			return whatsapp.ConnectionStatus{Connected: false, Message: "whatsapp integration not configured"}
		}
		h.logger.Error("failed to load whatsapp credentials", "error", err, "tenant_id", tenantID)
		return whatsapp.ConnectionStatus{Connected: false, Message: "credential lookup failed"}
	}

	return h.verifier.VerifyConnection(ctx, creds)
}

// sumCounter totals every series of a counter family across its labels.
func (h *WhatsAppStatusHandler) sumCounter(name string) float64 {
	families, err := h.gatherer.Gather()
	if err != nil {
		h.logger.Warn("failed to gather metrics", "error", err)
		return 0
	}

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

var _ connectionVerifier = (*whatsapp.Client)(nil)
