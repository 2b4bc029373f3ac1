package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadwire/leadwire-platform/cmd/mainconfig"
	"github.com/leadwire/leadwire-platform/internal/activities"
	"github.com/leadwire/leadwire-platform/internal/api/router"
	"github.com/leadwire/leadwire-platform/internal/app/bootstrap"
	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/http/handlers"
	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/internal/messaging"
	observemetrics "github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/internal/templates"
	whatsappworker "github.com/leadwire/leadwire-platform/internal/worker/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadwire API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsHandler, messagingMetrics, registry := setupMessagingMetrics()

	clients, err := setupAWSClients(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Initialize stores
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	pool, err := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	leadStore := bootstrap.BuildLeadStore(pool, logger)
	activityStore := bootstrap.BuildActivityStore(pool, logger)
	templateStore := bootstrap.BuildTemplateStore(pool, logger)
	processed := bootstrap.BuildProcessedTracker(pool, logger)
	index := bootstrap.BuildMessageIndex(cfg, pool, clients.dynamo, logger)
	archiveStore := bootstrap.BuildArchiveStore(cfg, clients.s3, logger)

	// Provider client and per-tenant credentials
	waClient := bootstrap.BuildWhatsAppClient(cfg, logger)
	credSource := bootstrap.BuildCredentialSource(redisClient, cfg, logger)
	integrationStore := bootstrap.BuildIntegrationStore(redisClient, cfg)

	// Notifications
	var sqlDB *sql.DB
	if pool != nil {
		sqlDB = stdlib.OpenDBFromPool(pool)
	}
	emailSender := bootstrap.BuildEmailSender(cfg, clients.ses, logger)
	notifier := bootstrap.BuildNotificationService(sqlDB, emailSender, integrationStore, logger)

	// Inbound pipeline and queue
	ingestor, err := bootstrap.BuildIngestPipeline(bootstrap.IngestPipelineConfig{
		Leads:      leadStore,
		Activities: activityStore,
		Index:      index,
		Notifier:   notifier,
		Metrics:    messagingMetrics,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build ingest pipeline", "error", err)
		os.Exit(1)
	}

	queue, err := bootstrap.BuildIngestQueue(cfg, clients.sqs, logger)
	if err != nil {
		logger.Error("failed to build ingest queue", "error", err)
		os.Exit(1)
	}
	publisher := messaging.NewPublisher(queue, logger)

	worker := setupInlineWorker(ctx, cfg, queue, ingestor, logger)

	syncer := templates.NewSynchronizer(templateStore, waClient, credSource, logger)
	setupTemplatePoller(ctx, cfg, syncer, messagingMetrics, logger)

	// Initialize handlers
	webhookCfg := handlers.WhatsAppWebhookConfig{
		Publisher:   publisher,
		Processed:   processed,
		AppSecret:   cfg.WhatsAppAppSecret,
		VerifyToken: cfg.WhatsAppVerifyToken,
		Metrics:     messagingMetrics,
		Logger:      logger,
	}
	// A nil concrete pointer must not become a non-nil interface.
	if archiveStore != nil {
		webhookCfg.Archive = archiveStore
	}
	if integrationStore != nil {
		webhookCfg.Integrations = integrationStore
	}
	webhookHandler := handlers.NewWhatsAppWebhookHandler(webhookCfg)

	messageHandler := handlers.NewWhatsAppMessageHandler(handlers.WhatsAppMessageConfig{
		Sender:      waClient,
		Credentials: credSource,
		Leads:       leadStore,
		Matcher:     leads.NewResolver(leadStore, logger),
		Recorder:    activities.NewRecorder(activityStore, leadStore, notifier, logger),
		Index:       index,
		Metrics:     messagingMetrics,
		Logger:      logger,
	})
	templateHandler := handlers.NewWhatsAppTemplateHandler(templateStore, syncer, logger)
	statusHandler := handlers.NewWhatsAppStatusHandler(waClient, credSource, registry, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Webhooks:           webhookHandler,
		Messages:           messageHandler,
		Templates:          templateHandler,
		Status:             statusHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRateLimit:   cfg.WebhookRateLimit,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Stop the inline worker after the listener drains so queued webhooks
	// still get processed.
	cancel()
	waitForInlineWorker(worker, logger)

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMessagingMetrics registers the messaging collectors on a dedicated
// registry. The registry backs both the /metrics endpoint and the status
// endpoint's counter totals.
func setupMessagingMetrics() (http.Handler, *observemetrics.MessagingMetrics, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	m := observemetrics.NewMessagingMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return handler, m, registry
}

// awsClients carries the AWS service clients the server may need. A field
// stays nil when configuration does not call for that service.
type awsClients struct {
	sqs    *sqs.Client
	dynamo *dynamodb.Client
	s3     *s3.Client
	ses    *sesv2.Client
}

func setupAWSClients(ctx context.Context, cfg *appconfig.Config) (awsClients, error) {
	var clients awsClients
	needSQS := !cfg.UseMemoryQueue
	needDynamo := cfg.MessageIndexBackend == "dynamodb"
	needS3 := cfg.ArchiveBucket != ""
	needSES := cfg.EmailProvider == "ses"
	if !needSQS && !needDynamo && !needS3 && !needSES {
		return clients, nil
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return clients, err
	}
	if needSQS {
		clients.sqs = sqs.NewFromConfig(awsCfg)
	}
	if needDynamo {
		clients.dynamo = dynamodb.NewFromConfig(awsCfg)
	}
	if needS3 {
		clients.s3 = s3.NewFromConfig(awsCfg)
	}
	if needSES {
		clients.ses = sesv2.NewFromConfig(awsCfg)
	}
	return clients, nil
}

// setupInlineWorker starts the ingest consumer in-process when the memory
// queue is active. SQS deployments run cmd/ingest-worker instead.
func setupInlineWorker(ctx context.Context, cfg *appconfig.Config, queue messaging.Queue, ingestor *messaging.Ingestor, logger *logging.Logger) *whatsappworker.IngestWorker {
	if cfg == nil || !cfg.UseMemoryQueue {
		return nil
	}
	worker := whatsappworker.NewIngestWorker(queue, ingestor, logger)
	worker.Start(ctx)
	logger.Info("inline ingest worker started")
	return worker
}

func waitForInlineWorker(worker *whatsappworker.IngestWorker, logger *logging.Logger) {
	if worker == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("ingest worker drained")
	case <-time.After(30 * time.Second):
		logger.Error("ingest worker shutdown timed out")
	}
}

// setupTemplatePoller starts periodic template reconciliation when an
// interval and tenant list are configured.
func setupTemplatePoller(ctx context.Context, cfg *appconfig.Config, syncer *templates.Synchronizer, m *observemetrics.MessagingMetrics, logger *logging.Logger) *whatsappworker.TemplatePoller {
	if cfg == nil || cfg.TemplateSyncInterval <= 0 || len(cfg.TemplateSyncTenants) == 0 || syncer == nil {
		return nil
	}
	poller := whatsappworker.NewTemplatePoller(syncer, m, logger).
		WithInterval(cfg.TemplateSyncInterval).
		WithTenants(cfg.TemplateSyncTenants)
	go poller.Run(ctx)
	logger.Info("template sync poller started",
		"interval", cfg.TemplateSyncInterval.String(),
		"tenants", len(cfg.TemplateSyncTenants),
	)
	return poller
}
