package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/leadwire/leadwire-platform/internal/activities"
	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/leads"
	observemetrics "github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/internal/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

type messageSender interface {
	SendText(ctx context.Context, creds whatsapp.Credentials, to, message string) (*whatsapp.SendResult, error)
	SendTemplate(ctx context.Context, creds whatsapp.Credentials, to, templateName string, params whatsapp.TemplateParams, languageCode string) (*whatsapp.SendResult, error)
}

type leadMatcher interface {
	Find(ctx context.Context, phone string) (*leads.Lead, error)
}

type outgoingRecorder interface {
	Record(ctx context.Context, lead *leads.Lead, input activities.RecordInput) (*activities.Activity, error)
}

// SendMessageRequest is the operator send payload. Kind defaults to "text";
// "template" sends require TemplateName. The recipient comes from To, or
// from the lead's stored phone when only LeadID is given.
type SendMessageRequest struct {
	To           string                  `json:"to,omitempty"`
	Kind         string                  `json:"kind,omitempty"`
	Body         string                  `json:"body,omitempty"`
	LeadID       string                  `json:"lead_id,omitempty"`
	UserID       string                  `json:"user_id,omitempty"`
	TemplateName string                  `json:"template_name,omitempty"`
	LanguageCode string                  `json:"language_code,omitempty"`
	Params       whatsapp.TemplateParams `json:"params"`
}

type SendMessageResponse struct {
	MessageID  string `json:"message_id"`
	LeadID     string `json:"lead_id"`
	ActivityID string `json:"activity_id,omitempty"`
	Status     string `json:"status"`
}

// WhatsAppMessageHandler dispatches operator-initiated messages, records
// them on the lead timeline, and seeds the message index so later delivery
// receipts can be applied.
type WhatsAppMessageHandler struct {
	sender   messageSender
	creds    integrations.CredentialSource
	leads    leads.Store
	matcher  leadMatcher
	recorder outgoingRecorder
	index    activities.MessageIndex
	metrics  *observemetrics.MessagingMetrics
	logger   *logging.Logger
}

type WhatsAppMessageConfig struct {
	Sender      messageSender
	Credentials integrations.CredentialSource
	Leads       leads.Store
	Matcher     leadMatcher
	Recorder    outgoingRecorder
	Index       activities.MessageIndex
	Metrics     *observemetrics.MessagingMetrics
	Logger      *logging.Logger
}

func NewWhatsAppMessageHandler(cfg WhatsAppMessageConfig) *WhatsAppMessageHandler {
	if cfg.Sender == nil {
		panic("handlers: message sender cannot be nil")
	}
	if cfg.Credentials == nil {
		panic("handlers: credential source cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WhatsAppMessageHandler{
		sender:   cfg.Sender,
		creds:    cfg.Credentials,
		leads:    cfg.Leads,
		matcher:  cfg.Matcher,
		recorder: cfg.Recorder,
		index:    cfg.Index,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// HandleSend processes POST /api/whatsapp/messages.
func (h *WhatsAppMessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = "text"
	}
	if kind != "text" && kind != "template" {
		http.Error(w, "kind must be text or template", http.StatusBadRequest)
		return
	}

	lead, err := h.resolveLead(r.Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			http.Error(w, "no lead matches the recipient", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to resolve lead for send", "error", err, "tenant_id", tenantID)
		http.Error(w, "failed to resolve lead", http.StatusInternalServerError)
		return
	}

	to := strings.TrimSpace(req.To)
	if to == "" {
		to = lead.Phone
	}

	creds, err := h.creds.CredentialsForTenant(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, integrations.ErrNotConfigured) {
			http.Error(w, "whatsapp is not configured for this tenant", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("failed to resolve credentials", "error", err, "tenant_id", tenantID)
		http.Error(w, "failed to resolve credentials", http.StatusInternalServerError)
		return
	}

	var result *whatsapp.SendResult
	switch kind {
	case "text":
		result, err = h.sender.SendText(r.Context(), creds, to, req.Body)
	case "template":
		result, err = h.sender.SendTemplate(r.Context(), creds, to, req.TemplateName, req.Params, req.LanguageCode)
	}
	if err != nil {
		h.metrics.ObserveOutbound(kind, "failed")
		h.respondSendError(w, err, tenantID)
		return
	}

	activityID := h.recordOutgoing(r.Context(), lead, req, kind, result)
	h.seedIndex(r.Context(), tenantID, lead.ID, activityID, result)

	h.metrics.ObserveOutbound(kind, "sent")
	writeJSON(w, http.StatusCreated, SendMessageResponse{
		MessageID:  result.MessageID,
		LeadID:     lead.ID,
		ActivityID: activityID,
		Status:     activities.MessageStatusSent,
	})
}

func (h *WhatsAppMessageHandler) resolveLead(ctx context.Context, tenantID string, req SendMessageRequest) (*leads.Lead, error) {
	if req.LeadID != "" {
		if h.leads == nil {
			return nil, leads.ErrLeadNotFound
		}
		return h.leads.Get(ctx, tenantID, req.LeadID)
	}
	if strings.TrimSpace(req.To) == "" {
		return nil, leads.ErrLeadNotFound
	}
	if h.matcher == nil {
		return nil, leads.ErrLeadNotFound
	}
	// Sends go to known leads only; unmatched recipients are rejected
	// rather than silently creating a lead with an inbound source.
	return h.matcher.Find(ctx, req.To)
}

func (h *WhatsAppMessageHandler) respondSendError(w http.ResponseWriter, err error, tenantID string) {
	if errors.Is(err, whatsapp.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var apiErr *whatsapp.APIError
	if errors.As(err, &apiErr) {
		h.logger.Error("provider rejected send", "error", err, "tenant_id", tenantID)
		http.Error(w, apiErr.Error(), http.StatusBadGateway)
		return
	}
	h.logger.Error("send failed", "error", err, "tenant_id", tenantID)
	http.Error(w, "failed to send message", http.StatusBadGateway)
}

func (h *WhatsAppMessageHandler) recordOutgoing(ctx context.Context, lead *leads.Lead, req SendMessageRequest, kind string, result *whatsapp.SendResult) string {
	if h.recorder == nil {
		return ""
	}
	content := req.Body
	if kind == "template" {
		content = "Sent template " + req.TemplateName
	}
	activity, err := h.recorder.Record(ctx, lead, activities.RecordInput{
		Type:      activities.TypeWhatsApp,
		Direction: activities.DirectionOutgoing,
		Content:   content,
		UserID:    req.UserID,
		Metadata: activities.Metadata{
			MessageID:   result.MessageID,
			Phone:       result.Recipient,
			MessageType: kind,
		},
	})
	if err != nil {
		// The provider accepted the message; a timeline gap is better than
		// failing the request after the send.
		h.logger.Error("failed to record outgoing activity", "error", err, "lead_id", lead.ID)
		return ""
	}
	return activity.ID
}

func (h *WhatsAppMessageHandler) seedIndex(ctx context.Context, tenantID, leadID, activityID string, result *whatsapp.SendResult) {
	if h.index == nil || result.MessageID == "" {
		return
	}
	err := h.index.Put(ctx, activities.IndexEntry{
		MessageID:  result.MessageID,
		TenantID:   tenantID,
		LeadID:     leadID,
		ActivityID: activityID,
	})
	if err != nil {
		h.logger.Error("failed to seed message index", "error", err, "message_id", result.MessageID)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
