package activities

import (
	"context"
	"fmt"

	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/internal/notify"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// RecordInput describes one activity to append to a lead's timeline.
type RecordInput struct {
	Type        string
	Direction   string
	Content     string
	UserID      string
	Metadata    Metadata
	Attachments []Attachment
}

// Recorder writes canonical activities and applies the side effects the
// rest of the platform expects: a notification for the assigned user and
// the one-way new-to-contacted status transition on inbound traffic.
//
// Only the activity write itself is fatal. Notification and status-update
// failures are logged and swallowed so a flaky secondary system cannot
// drop messages.
type Recorder struct {
	store  Store
	leads  leads.Store
	sink   notify.Sink
	logger *logging.Logger
}

// NewRecorder creates a recorder. sink may be nil when notifications are
// disabled.
func NewRecorder(store Store, leadStore leads.Store, sink notify.Sink, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{store: store, leads: leadStore, sink: sink, logger: logger}
}

// Record appends the activity and returns it. The passed lead is updated
// in place when an inbound message moves it to contacted.
func (r *Recorder) Record(ctx context.Context, lead *leads.Lead, input RecordInput) (*Activity, error) {
	if lead == nil || lead.ID == "" {
		return nil, fmt.Errorf("activities: record requires a lead")
	}
	if input.Type == "" {
		input.Type = TypeWhatsApp
	}

	activity := &Activity{
		TenantID:    lead.TenantID,
		LeadID:      lead.ID,
		UserID:      input.UserID,
		Type:        input.Type,
		Direction:   input.Direction,
		Content:     input.Content,
		Metadata:    input.Metadata,
		Attachments: input.Attachments,
	}
	if err := r.store.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("activities: create: %w", err)
	}

	r.notifyAssignedUser(ctx, lead, activity)

	if input.Direction == DirectionIncoming {
		r.markContacted(ctx, lead)
	}
	return activity, nil
}

func (r *Recorder) notifyAssignedUser(ctx context.Context, lead *leads.Lead, activity *Activity) {
	if r.sink == nil || lead.AssignedUserID == "" || activity.Direction == DirectionInternal {
		return
	}
	err := r.sink.CreateNotification(ctx, notify.Notification{
		TenantID: lead.TenantID,
		UserID:   lead.AssignedUserID,
		Type:     notify.TypeMessage,
		Content:  lead.Name + ": " + activity.Content,
		LeadID:   lead.ID,
	})
	if err != nil {
		r.logger.Warn("activities: notification failed",
			"error", err,
			"tenant_id", lead.TenantID,
			"lead_id", lead.ID,
			"user_id", lead.AssignedUserID)
	}
}

// markContacted moves a new or unread lead to contacted and records the
// transition as its own internal activity. The transition is one way;
// contacted leads and beyond are left alone.
func (r *Recorder) markContacted(ctx context.Context, lead *leads.Lead) {
	if lead.Status != leads.StatusNew && lead.Status != leads.StatusUnread {
		return
	}
	oldStatus := lead.Status
	if err := r.leads.UpdateStatus(ctx, lead.TenantID, lead.ID, leads.StatusContacted); err != nil {
		r.logger.Error("activities: lead status update failed",
			"error", err,
			"tenant_id", lead.TenantID,
			"lead_id", lead.ID)
		return
	}
	lead.Status = leads.StatusContacted

	transition := &Activity{
		TenantID:  lead.TenantID,
		LeadID:    lead.ID,
		Type:      TypeStatusChange,
		Direction: DirectionInternal,
		Content:   fmt.Sprintf("Status changed from %s to %s", oldStatus, leads.StatusContacted),
		Metadata: Metadata{
			OldStatus: oldStatus,
			NewStatus: leads.StatusContacted,
			Trigger:   TriggerIncomingMessage,
		},
	}
	if err := r.store.Create(ctx, transition); err != nil {
		r.logger.Error("activities: status change activity failed",
			"error", err,
			"tenant_id", lead.TenantID,
			"lead_id", lead.ID)
	}
}
