package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/leadwire/leadwire-platform/internal/activities"
	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/integrations"
	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/internal/messaging"
	"github.com/leadwire/leadwire-platform/internal/notify"
	observemetrics "github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/internal/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
	"github.com/redis/go-redis/v9"
)

// BuildWhatsAppClient creates the Cloud API client from config.
func BuildWhatsAppClient(cfg *appconfig.Config, logger *logging.Logger) *whatsapp.Client {
	if logger == nil {
		logger = logging.Default()
	}
	clientCfg := whatsapp.Config{
		Logger: logger.Logger,
	}
	if cfg != nil {
		clientCfg.BaseURL = cfg.WhatsAppGraphBaseURL
		clientCfg.APIVersion = cfg.WhatsAppAPIVersion
		clientCfg.Timeout = cfg.WhatsAppTimeout
		clientCfg.MaxRetries = cfg.WhatsAppMaxRetries
		clientCfg.Backoff = cfg.WhatsAppRetryBackoff
	}
	return whatsapp.New(clientCfg)
}

// BuildCredentialSource resolves per-tenant WhatsApp credentials from Redis
// when available, with the environment credentials as the shared fallback.
func BuildCredentialSource(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) integrations.CredentialSource {
	fallback := envCredentials(cfg)
	if redisClient != nil {
		return integrations.NewRedisStore(redisClient, fallback)
	}
	if logger != nil {
		logger.Warn("no redis configured; all tenants share environment whatsapp credentials")
	}
	return integrations.NewEnvSource(fallback)
}

// BuildIntegrationStore returns the per-tenant integration config store, or
// nil when Redis is unavailable.
func BuildIntegrationStore(redisClient *redis.Client, cfg *appconfig.Config) *integrations.RedisStore {
	if redisClient == nil {
		return nil
	}
	return integrations.NewRedisStore(redisClient, envCredentials(cfg))
}

func envCredentials(cfg *appconfig.Config) whatsapp.Credentials {
	if cfg == nil {
		return whatsapp.Credentials{}
	}
	return whatsapp.Credentials{
		AccessToken:       cfg.WhatsAppAccessToken,
		PhoneNumberID:     cfg.WhatsAppPhoneNumberID,
		BusinessAccountID: cfg.WhatsAppBusinessAccountID,
	}
}

// BuildIngestQueue picks the webhook ingest queue. Production uses SQS;
// USE_MEMORY_QUEUE keeps everything in-process for local development.
func BuildIngestQueue(cfg *appconfig.Config, sqsClient *sqs.Client, logger *logging.Logger) (messaging.Queue, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || cfg.UseMemoryQueue {
		logger.Info("using in-memory ingest queue")
		return messaging.NewMemoryQueue(0), nil
	}
	if strings.TrimSpace(cfg.IngestQueueURL) == "" {
		return nil, fmt.Errorf("bootstrap: INGEST_QUEUE_URL is required when USE_MEMORY_QUEUE=false")
	}
	if sqsClient == nil {
		return nil, fmt.Errorf("bootstrap: sqs client is required for queue %s", cfg.IngestQueueURL)
	}
	return messaging.NewSQSQueue(sqsClient, cfg.IngestQueueURL), nil
}

// IngestPipelineConfig collects the stores the inbound pipeline runs on.
type IngestPipelineConfig struct {
	Leads      leads.Store
	Activities activities.Store
	Index      activities.MessageIndex
	Notifier   notify.Sink
	Metrics    *observemetrics.MessagingMetrics
	Logger     *logging.Logger
}

// BuildIngestPipeline assembles the resolver, recorder, and status applier
// behind a payload ingestor.
func BuildIngestPipeline(cfg IngestPipelineConfig) (*messaging.Ingestor, error) {
	if cfg.Leads == nil {
		return nil, fmt.Errorf("bootstrap: ingest pipeline requires a lead store")
	}
	if cfg.Activities == nil {
		return nil, fmt.Errorf("bootstrap: ingest pipeline requires an activity store")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	resolver := leads.NewResolver(cfg.Leads, cfg.Logger)
	recorder := activities.NewRecorder(cfg.Activities, cfg.Leads, cfg.Notifier, cfg.Logger)

	var receipts *messaging.StatusApplier
	if cfg.Index != nil {
		receipts = messaging.NewStatusApplier(cfg.Index, cfg.Metrics, cfg.Logger)
	}

	if receipts == nil {
		return messaging.NewIngestor(resolver, recorder, nil, cfg.Metrics, cfg.Logger), nil
	}
	return messaging.NewIngestor(resolver, recorder, receipts, cfg.Metrics, cfg.Logger), nil
}
