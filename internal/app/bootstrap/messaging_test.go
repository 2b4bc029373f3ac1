package bootstrap

import (
	"testing"

	"github.com/leadwire/leadwire-platform/internal/activities"
	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/internal/messaging"
	"github.com/leadwire/leadwire-platform/internal/notify"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

func TestBuildWhatsAppClientNilConfig(t *testing.T) {
	if client := BuildWhatsAppClient(nil, logging.New("error")); client == nil {
		t.Fatalf("expected client with defaults")
	}
}

func TestBuildCredentialSourceWithoutRedis(t *testing.T) {
	cfg := &appconfig.Config{
		WhatsAppAccessToken:   "token",
		WhatsAppPhoneNumberID: "123",
	}

	source := BuildCredentialSource(nil, cfg, logging.New("error"))
	if _, ok := source.(*integrations.EnvSource); !ok {
		t.Fatalf("expected env source, got %T", source)
	}
}

func TestBuildIntegrationStoreWithoutRedis(t *testing.T) {
	if store := BuildIntegrationStore(nil, &appconfig.Config{}); store != nil {
		t.Fatalf("expected nil store without redis")
	}
}

func TestBuildIngestQueueMemory(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: true}

	queue, err := BuildIngestQueue(cfg, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := queue.(*messaging.MemoryQueue); !ok {
		t.Fatalf("expected memory queue, got %T", queue)
	}
}

func TestBuildIngestQueueRequiresURL(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: false}

	if _, err := BuildIngestQueue(cfg, nil, logging.New("error")); err == nil {
		t.Fatalf("expected error without INGEST_QUEUE_URL")
	}
}

func TestBuildIngestPipelineRequiresLeadStore(t *testing.T) {
	_, err := BuildIngestPipeline(IngestPipelineConfig{
		Activities: activities.NewMemoryStore(),
	})
	if err == nil {
		t.Fatalf("expected error without lead store")
	}
}

func TestBuildIngestPipelineRequiresActivityStore(t *testing.T) {
	_, err := BuildIngestPipeline(IngestPipelineConfig{
		Leads: leads.NewMemoryStore(),
	})
	if err == nil {
		t.Fatalf("expected error without activity store")
	}
}

func TestBuildIngestPipelineMemoryStores(t *testing.T) {
	ingestor, err := BuildIngestPipeline(IngestPipelineConfig{
		Leads:      leads.NewMemoryStore(),
		Activities: activities.NewMemoryStore(),
		Index:      activities.NewMemoryIndex(),
		Logger:     logging.New("error"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ingestor == nil {
		t.Fatalf("expected ingestor")
	}
}

func TestBuildEmailSenderDefaultsToStub(t *testing.T) {
	sender := BuildEmailSender(&appconfig.Config{}, nil, logging.New("error"))
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}
}

func TestBuildEmailSenderSendGridWithoutKey(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid"}

	sender := BuildEmailSender(cfg, nil, logging.New("error"))
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub fallback, got %T", sender)
	}
}

func TestBuildEmailSenderSendGrid(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:   "sendgrid",
		SendGridAPIKey:  "sg-key",
		NotifyFromEmail: "alerts@leadwire.dev",
	}

	sender := BuildEmailSender(cfg, nil, logging.New("error"))
	if _, ok := sender.(*notify.SendGridSender); !ok {
		t.Fatalf("expected sendgrid sender, got %T", sender)
	}
}

func TestBuildNotificationServiceWithoutDB(t *testing.T) {
	svc := BuildNotificationService(nil, notify.NewStubEmailSender(logging.New("error")), nil, logging.New("error"))
	if svc == nil {
		t.Fatalf("expected service")
	}
}
