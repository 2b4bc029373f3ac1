package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leadwire/leadwire-platform/cmd/mainconfig"
	"github.com/leadwire/leadwire-platform/internal/app/bootstrap"
	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/templates"
	whatsappworker "github.com/leadwire/leadwire-platform/internal/worker/whatsapp"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.UseMemoryQueue {
		logger.Error("ingest worker requires USE_MEMORY_QUEUE=false; with the memory queue the API server consumes in-process")
		os.Exit(1)
	}

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsConfig)
	queue, err := bootstrap.BuildIngestQueue(cfg, sqsClient, logger)
	if err != nil {
		logger.Error("failed to build ingest queue", "error", err)
		os.Exit(1)
	}

	var dynamoClient *dynamodb.Client
	if cfg.MessageIndexBackend == "dynamodb" {
		dynamoClient = dynamodb.NewFromConfig(awsConfig)
	}
	var sesClient *sesv2.Client
	if cfg.EmailProvider == "ses" {
		sesClient = sesv2.NewFromConfig(awsConfig)
	}

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
	index := bootstrap.BuildMessageIndex(cfg, pool, dynamoClient, logger)

	var sqlDB *sql.DB
	if pool != nil {
		sqlDB = stdlib.OpenDBFromPool(pool)
	}
	emailSender := bootstrap.BuildEmailSender(cfg, sesClient, logger)
	integrationStore := bootstrap.BuildIntegrationStore(redisClient, cfg)
	notifier := bootstrap.BuildNotificationService(sqlDB, emailSender, integrationStore, logger)

	ingestor, err := bootstrap.BuildIngestPipeline(bootstrap.IngestPipelineConfig{
		Leads:      leadStore,
		Activities: activityStore,
		Index:      index,
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build ingest pipeline", "error", err)
		os.Exit(1)
	}

	worker := whatsappworker.NewIngestWorker(queue, ingestor, logger)
	worker.Start(ctx)
	logger.Info("ingest worker started", "queue_url", cfg.IngestQueueURL)

	if cfg.TemplateSyncInterval > 0 && len(cfg.TemplateSyncTenants) > 0 {
		templateStore := bootstrap.BuildTemplateStore(pool, logger)
		waClient := bootstrap.BuildWhatsAppClient(cfg, logger)
		credSource := bootstrap.BuildCredentialSource(redisClient, cfg, logger)
		syncer := templates.NewSynchronizer(templateStore, waClient, credSource, logger)
		poller := whatsappworker.NewTemplatePoller(syncer, nil, logger).
			WithInterval(cfg.TemplateSyncInterval).
			WithTenants(cfg.TemplateSyncTenants)
		go poller.Run(ctx)
		logger.Info("template sync poller started",
			"interval", cfg.TemplateSyncInterval.String(),
			"tenants", len(cfg.TemplateSyncTenants),
		)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down ingest worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("ingest worker stopped")
	case <-doneCtx.Done():
		logger.Error("ingest worker shutdown timed out", "error", doneCtx.Err())
	}
}
