package bootstrap

import (
	"database/sql"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/notify"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// BuildEmailSender selects the notification email backend. "sendgrid" and
// "ses" use their respective providers; anything else logs instead of
// sending so local runs never email anyone.
func BuildEmailSender(cfg *appconfig.Config, sesClient *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; email notifications disabled")
			return notify.NewStubEmailSender(logger)
		}
		return sender
	case "ses":
		sender := notify.NewSESSender(sesClient, notify.SESConfig{
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		}, logger)
		if sender == nil {
			logger.Warn("ses selected but no client available; email notifications disabled")
			return notify.NewStubEmailSender(logger)
		}
		return sender
	}

	return notify.NewStubEmailSender(logger)
}

// BuildNotificationService wires the in-app notification sink with its
// optional email mirror. sqlDB may be nil; notifications then go to email
// (or the log) only.
func BuildNotificationService(sqlDB *sql.DB, email notify.EmailSender, integrationStore *integrations.RedisStore, logger *logging.Logger) *notify.Service {
	var store *notify.Store
	if sqlDB != nil {
		store = notify.NewStore(sqlDB)
	}
	// A nil concrete pointer must not become a non-nil interface.
	var cfgStore notify.IntegrationConfigStore
	if integrationStore != nil {
		cfgStore = integrationStore
	}
	return notify.NewService(store, email, cfgStore, logger)
}
