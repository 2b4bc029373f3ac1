package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// maxContentLength caps notification bodies so list views stay scannable.
const maxContentLength = 120

// IntegrationConfigStore retrieves tenant integration settings, used to
// look up where email copies of notifications should go.
type IntegrationConfigStore interface {
	Get(ctx context.Context, tenantID string) (*integrations.Config, error)
}

// Service persists in-app notifications and mirrors them to the tenant's
// notification email when one is configured. In-app delivery is the
// primary channel; email failures are logged and swallowed.
type Service struct {
	store        *Store
	email        EmailSender
	integrations IntegrationConfigStore
	logger       *logging.Logger
}

// NewService creates a notification service. store, email, and
// integrationStore may each be nil; the service skips the channels it
// has no backend for.
func NewService(store *Store, email EmailSender, integrationStore IntegrationConfigStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:        store,
		email:        email,
		integrations: integrationStore,
		logger:       logger,
	}
}

// CreateNotification stores the notification and fans it out to email.
func (s *Service) CreateNotification(ctx context.Context, n Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notify: notification requires a user id")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = TypeMessage
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.Content = truncate(n.Content, maxContentLength)

	if s.store != nil {
		if err := s.store.Insert(ctx, &n); err != nil {
			return err
		}
	}

	s.sendEmailCopy(ctx, n)
	return nil
}

func (s *Service) sendEmailCopy(ctx context.Context, n Notification) {
	if s.email == nil || s.integrations == nil {
		return
	}
	cfg, err := s.integrations.Get(ctx, n.TenantID)
	if err != nil {
		s.logger.Warn("notify: integration config lookup failed", "error", err, "tenant_id", n.TenantID)
		return
	}
	if cfg == nil || cfg.NotificationEmail == "" {
		return
	}

	msg := EmailMessage{
		To:      cfg.NotificationEmail,
		Subject: "New WhatsApp message",
		Body:    n.Content,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Warn("notify: email copy failed", "error", err, "tenant_id", n.TenantID, "to", cfg.NotificationEmail)
	}
}

// truncate keeps s within maxLen bytes, ellipsis included.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Ensure interface compliance
var _ Sink = (*Service)(nil)
