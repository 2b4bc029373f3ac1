package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/leadwire/leadwire-platform/internal/events"
	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/messaging"
	observemetrics "github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/internal/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

var webhookTracer = otel.Tracer("leadwire.internal.http.whatsapp")

type webhookPublisher interface {
	Publish(ctx context.Context, tenantID string, payload []byte) error
}

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

type payloadArchiver interface {
	Enabled() bool
	ArchivePayload(ctx context.Context, tenantID string, receivedAt time.Time, payload []byte) (string, error)
}

type integrationConfigStore interface {
	Get(ctx context.Context, tenantID string) (*integrations.Config, error)
}

// WhatsAppWebhookHandler receives provider webhooks: the GET subscription
// handshake and POSTed message/status payloads.
type WhatsAppWebhookHandler struct {
	publisher    webhookPublisher
	processed    processedTracker
	archive      payloadArchiver
	integrations integrationConfigStore
	appSecret    string
	verifyToken  string
	metrics      *observemetrics.MessagingMetrics
	logger       *logging.Logger
}

type WhatsAppWebhookConfig struct {
	Publisher    webhookPublisher
	Processed    processedTracker
	Archive      payloadArchiver
	Integrations integrationConfigStore
	// AppSecret enables X-Hub-Signature-256 checks when set.
	AppSecret string
	// VerifyToken is the handshake fallback for tenants without a stored one.
	VerifyToken string
	Metrics     *observemetrics.MessagingMetrics
	Logger      *logging.Logger
}

func NewWhatsAppWebhookHandler(cfg WhatsAppWebhookConfig) *WhatsAppWebhookHandler {
	if cfg.Publisher == nil {
		panic("handlers: webhook publisher cannot be nil")
	}
	if cfg.Processed == nil {
		panic("handlers: processed tracker cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		publisher:    cfg.Publisher,
		processed:    cfg.Processed,
		archive:      cfg.Archive,
		integrations: cfg.Integrations,
		appSecret:    cfg.AppSecret,
		verifyToken:  cfg.VerifyToken,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// HandleVerify answers the provider's GET subscription handshake by echoing
// hub.challenge when the verify token matches.
func (h *WhatsAppWebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	expected := h.verifyTokenFor(r.Context(), tenantID)
	if mode != "subscribe" || expected == "" || token != expected {
		h.logger.Warn("webhook verification rejected", "tenant_id", tenantID, "mode", mode)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

func (h *WhatsAppWebhookHandler) verifyTokenFor(ctx context.Context, tenantID string) string {
	if h.integrations != nil && tenantID != "" {
		cfg, err := h.integrations.Get(ctx, tenantID)
		if err != nil {
			h.logger.Warn("failed to load integration config for verify", "error", err, "tenant_id", tenantID)
		} else if cfg.VerifyToken != "" {
			return cfg.VerifyToken
		}
	}
	return h.verifyToken
}

// HandleWebhook processes POSTed payloads: verify signature, mark events
// processed (dropping full duplicates), archive the raw body, and enqueue
// for ingestion. Malformed bodies are acked so the provider stops
// redelivering them; the archive keeps the evidence.
func (h *WhatsAppWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "whatsapp.webhook")
	defer span.End()

	start := time.Now()
	receivedAt := start.UTC()

	tenantID := chi.URLParam(r, "tenantID")
	if tenantID == "" {
		http.Error(w, "unknown tenant", http.StatusNotFound)
		return
	}
	span.SetAttributes(attribute.String("leadwire.tenant_id", tenantID))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	if h.appSecret != "" {
		if err := whatsapp.VerifySignature(h.appSecret, r.Header.Get("X-Hub-Signature-256"), body); err != nil {
			h.logger.Warn("invalid webhook signature", "error", err, "tenant_id", tenantID)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			span.RecordError(err)
			return
		}
	}

	var payload messaging.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("failed to parse webhook payload", "error", err, "tenant_id", tenantID)
		h.archivePayload(ctx, tenantID, receivedAt, body)
		span.RecordError(err)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Mark every event id up front. The insert is the atomic guard against
	// concurrent redelivery; a payload whose events were all seen before is
	// acked without reprocessing.
	ids := payload.EventIDs()
	fresh := 0
	for _, id := range ids {
		marked, err := h.processed.MarkProcessed(ctx, events.ProviderWhatsApp, id)
		if err != nil {
			h.logger.Error("failed to mark event processed", "error", err, "event_id", id)
			fresh++
			continue
		}
		if marked {
			fresh++
		}
	}
	if len(ids) > 0 && fresh == 0 {
		h.logger.Info("duplicate webhook delivery ignored", "tenant_id", tenantID, "events", len(ids))
		w.WriteHeader(http.StatusOK)
		return
	}

	h.archivePayload(ctx, tenantID, receivedAt, body)

	if err := h.publisher.Publish(ctx, tenantID, body); err != nil {
		// The payload is archived and its events are marked, so redelivery
		// will be dropped as a duplicate; replay runs from the archive.
		h.logger.Error("failed to enqueue webhook payload", "error", err, "tenant_id", tenantID)
		span.RecordError(err)
		http.Error(w, "failed to schedule processing", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveWebhookLatency(primaryField(payload), time.Since(start).Seconds())
	w.WriteHeader(http.StatusOK)
}

func (h *WhatsAppWebhookHandler) archivePayload(ctx context.Context, tenantID string, receivedAt time.Time, body []byte) {
	if h.archive == nil || !h.archive.Enabled() {
		return
	}
	if _, err := h.archive.ArchivePayload(ctx, tenantID, receivedAt, body); err != nil {
		h.logger.Error("failed to archive webhook payload", "error", err, "tenant_id", tenantID)
	}
}

func primaryField(payload messaging.WebhookPayload) string {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" {
				return change.Field
			}
		}
	}
	return "unknown"
}
