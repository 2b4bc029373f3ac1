// Package bootstrap wires configuration into runnable components so the
// API server, the ingest worker, and the Lambda entrypoint share one set
// of construction rules.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/leadwire/leadwire-platform/internal/activities"
	"github.com/leadwire/leadwire-platform/internal/archive"
	appconfig "github.com/leadwire/leadwire-platform/internal/config"
	"github.com/leadwire/leadwire-platform/internal/events"
	"github.com/leadwire/leadwire-platform/internal/leads"
	"github.com/leadwire/leadwire-platform/internal/templates"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPgxPool connects to Postgres when DATABASE_URL is set. A missing URL
// is not an error; callers fall back to in-memory stores.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not reachable at startup", "error", err)
	}
	return pool, nil
}

// BuildLeadStore prefers Postgres and falls back to memory for local runs.
func BuildLeadStore(pool *pgxpool.Pool, logger *logging.Logger) leads.Store {
	if pool != nil {
		return leads.NewPostgresStore(pool)
	}
	if logger != nil {
		logger.Warn("no database configured; leads are stored in memory")
	}
	return leads.NewMemoryStore()
}

// BuildActivityStore prefers Postgres and falls back to memory.
func BuildActivityStore(pool *pgxpool.Pool, logger *logging.Logger) activities.Store {
	if pool != nil {
		return activities.NewPostgresStore(pool)
	}
	if logger != nil {
		logger.Warn("no database configured; activities are stored in memory")
	}
	return activities.NewMemoryStore()
}

// BuildTemplateStore prefers Postgres and falls back to memory.
func BuildTemplateStore(pool *pgxpool.Pool, logger *logging.Logger) templates.Store {
	if pool != nil {
		return templates.NewPostgresStore(pool)
	}
	if logger != nil {
		logger.Warn("no database configured; templates are stored in memory")
	}
	return templates.NewMemoryStore()
}

// BuildProcessedTracker returns the webhook dedup guard. Without Postgres
// the guard is process-local, which only suppresses duplicates within one
// instance.
func BuildProcessedTracker(pool *pgxpool.Pool, logger *logging.Logger) events.Tracker {
	if pool != nil {
		return events.NewProcessedStore(pool)
	}
	if logger != nil {
		logger.Warn("no database configured; webhook dedup is process-local")
	}
	return events.NewMemoryProcessedStore()
}

// BuildMessageIndex selects the delivery-receipt index backend from config:
// "postgres", "dynamodb", or "memory". An empty backend picks postgres when
// a pool exists, memory otherwise.
func BuildMessageIndex(cfg *appconfig.Config, pool *pgxpool.Pool, dynamoClient *dynamodb.Client, logger *logging.Logger) activities.MessageIndex {
	if logger == nil {
		logger = logging.Default()
	}
	backend := ""
	if cfg != nil {
		backend = cfg.MessageIndexBackend
	}

	switch backend {
	case "postgres":
		if pool == nil {
			logger.Warn("postgres message index requested without DATABASE_URL; using memory index")
			return activities.NewMemoryIndex()
		}
		return activities.NewPostgresIndex(pool)
	case "dynamodb":
		if dynamoClient == nil || cfg.MessageIndexTable == "" {
			logger.Warn("dynamodb message index requested without client or table; using memory index")
			return activities.NewMemoryIndex()
		}
		return activities.NewDynamoIndex(dynamoClient, cfg.MessageIndexTable, logger)
	case "memory":
		return activities.NewMemoryIndex()
	}

	if pool != nil {
		return activities.NewPostgresIndex(pool)
	}
	logger.Warn("no message index backend configured; delivery receipts are tracked in memory")
	return activities.NewMemoryIndex()
}

// BuildArchiveStore returns the raw-payload archive, or nil when no bucket
// is configured.
func BuildArchiveStore(cfg *appconfig.Config, s3Client *s3.Client, logger *logging.Logger) *archive.Store {
	if cfg == nil || strings.TrimSpace(cfg.ArchiveBucket) == "" || s3Client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return archive.NewStore(s3Client, cfg.ArchiveBucket, logger.Logger)
}
