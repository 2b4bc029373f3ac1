package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadwire/leadwire-platform/internal/activities"
	"github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// StatusApplier applies delivery receipts to the message index. The index
// only tracks messages sent through the operator path, so receipts for
// unknown messages are expected and skipped quietly.
type StatusApplier struct {
	index   activities.MessageIndex
	metrics *metrics.MessagingMetrics
	logger  *logging.Logger
}

func NewStatusApplier(index activities.MessageIndex, m *metrics.MessagingMetrics, logger *logging.Logger) *StatusApplier {
	if index == nil {
		panic("messaging: message index cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusApplier{index: index, metrics: m, logger: logger}
}

// Apply records one delivery receipt against the tenant in the context.
// Downgrades and duplicates are no-ops; the recorded activity is never
// mutated, only the index entry advances.
func (a *StatusApplier) Apply(ctx context.Context, update StatusUpdate) error {
	tenantID, ok := tenancy.TenantIDFromContext(ctx)
	if !ok {
		return fmt.Errorf("messaging: status apply requires tenant scope")
	}
	if update.MessageID == "" || update.Status == "" {
		a.logger.Warn("status update missing id or status", "tenant_id", tenantID)
		return nil
	}

	entry, applied, err := a.index.ApplyStatus(ctx, tenantID, update.MessageID, update.Status, update.Time())
	if err != nil {
		if errors.Is(err, activities.ErrEntryNotFound) {
			a.logger.Info("status update for untracked message",
				"message_id", update.MessageID,
				"status", update.Status,
			)
			a.metrics.ObserveStatusUpdate(update.Status, false)
			return nil
		}
		return fmt.Errorf("messaging: apply status %s to %s: %w", update.Status, update.MessageID, err)
	}

	a.metrics.ObserveStatusUpdate(update.Status, applied)
	if applied {
		a.logger.Info("message status updated",
			"message_id", update.MessageID,
			"status", entry.Status,
			"lead_id", entry.LeadID,
		)
	}
	return nil
}

// Ensure interface compliance
var _ receiptApplier = (*StatusApplier)(nil)
