package messaging

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/leadwire/leadwire-platform/internal/activities"
	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

var tracer = otel.Tracer("leadwire.internal.messaging")

const (
	fieldMessages      = "messages"
	fieldStatusUpdates = "message_status_updates"
)

type leadResolver interface {
	Resolve(ctx context.Context, phone, contactName string) (*leads.Lead, bool, error)
}

type activityRecorder interface {
	Record(ctx context.Context, lead *leads.Lead, input activities.RecordInput) (*activities.Activity, error)
}

type receiptApplier interface {
	Apply(ctx context.Context, update StatusUpdate) error
}

// Ingestor drives the inbound pipeline for one webhook payload:
// normalize each message, resolve it to a lead, record the activity, and
// hand delivery receipts to the status applier.
type Ingestor struct {
	resolver leadResolver
	recorder activityRecorder
	receipts receiptApplier
	metrics  *metrics.MessagingMetrics
	logger   *logging.Logger
}

// NewIngestor creates an Ingestor. The receipt applier may be nil when no
// message index is configured; receipts are then dropped with a log line.
func NewIngestor(resolver leadResolver, recorder activityRecorder, receipts receiptApplier, m *metrics.MessagingMetrics, logger *logging.Logger) *Ingestor {
	if resolver == nil {
		panic("messaging: lead resolver cannot be nil")
	}
	if recorder == nil {
		panic("messaging: activity recorder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ingestor{
		resolver: resolver,
		recorder: recorder,
		receipts: receipts,
		metrics:  m,
		logger:   logger,
	}
}

// Ingest processes one raw webhook payload. Malformed payloads and
// per-message failures are logged, never propagated: webhook delivery is
// at-least-once and the HTTP layer acks regardless, so an error here only
// drives logging and metrics.
func (i *Ingestor) Ingest(ctx context.Context, payload []byte) error {
	ctx, span := tracer.Start(ctx, "messaging.ingest")
	defer span.End()

	var webhook WebhookPayload
	if err := json.Unmarshal(payload, &webhook); err != nil {
		i.logger.Error("failed to parse webhook payload", "error", err)
		span.RecordError(err)
		return nil
	}
	if len(webhook.Entry) == 0 {
		i.logger.Warn("webhook payload has no entries", "object", webhook.Object)
		return nil
	}

	for _, entry := range webhook.Entry {
		for _, change := range entry.Changes {
			switch change.Field {
			case fieldMessages:
				i.processMessages(ctx, change.Value)
				i.processStatuses(ctx, change.Value.Statuses)
			case fieldStatusUpdates:
				i.processStatuses(ctx, change.Value.Statuses)
			default:
				i.logger.Debug("ignoring webhook change", "field", change.Field)
			}
		}
	}
	return nil
}

func (i *Ingestor) processMessages(ctx context.Context, value ChangeValue) {
	for _, msg := range value.Messages {
		if err := i.processMessage(ctx, value, msg); err != nil {
			i.logger.Error("failed to process inbound message",
				"error", err,
				"message_id", msg.ID,
				"from", msg.From,
			)
		}
	}
}

func (i *Ingestor) processMessage(ctx context.Context, value ChangeValue, msg InboundMessage) error {
	ctx, span := tracer.Start(ctx, "messaging.ingest.message")
	defer span.End()
	span.SetAttributes(
		attribute.String("leadwire.whatsapp.message_id", msg.ID),
		attribute.String("leadwire.whatsapp.from", msg.From),
		attribute.String("leadwire.whatsapp.type", msg.Type),
	)

	normalized := Normalize(msg)
	contactName := value.ContactName(msg.From)

	lead, created, err := i.resolver.Resolve(ctx, msg.From, contactName)
	if err != nil {
		i.metrics.ObserveInbound(normalized.MessageType, "error")
		span.RecordError(err)
		return err
	}
	if created {
		i.logger.Info("created lead for inbound message", "lead_id", lead.ID, "phone", msg.From)
	}
	span.SetAttributes(attribute.String("leadwire.lead_id", lead.ID))

	_, err = i.recorder.Record(ctx, lead, activities.RecordInput{
		Type:      activities.TypeWhatsApp,
		Direction: activities.DirectionIncoming,
		Content:   normalized.Content,
		Metadata: activities.Metadata{
			MessageID:   msg.ID,
			Timestamp:   msg.Timestamp,
			ContactName: contactName,
			Phone:       msg.From,
			MessageType: normalized.MessageType,
		},
		Attachments: normalized.Attachments,
	})
	if err != nil {
		i.metrics.ObserveInbound(normalized.MessageType, "error")
		span.RecordError(err)
		return err
	}

	i.metrics.ObserveInbound(normalized.MessageType, "processed")
	return nil
}

func (i *Ingestor) processStatuses(ctx context.Context, statuses []StatusUpdate) {
	if len(statuses) == 0 {
		return
	}
	if i.receipts == nil {
		i.logger.Debug("dropping status updates, no message index configured", "count", len(statuses))
		return
	}
	for _, status := range statuses {
		if err := i.receipts.Apply(ctx, status); err != nil {
			i.logger.Error("failed to apply status update",
				"error", err,
				"message_id", status.MessageID,
				"status", status.Status,
			)
		}
	}
}
