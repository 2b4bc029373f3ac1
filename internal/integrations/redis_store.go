package integrations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/leadwire/leadwire-platform/internal/whatsapp"
)

// RedisStore persists per-tenant WhatsApp settings in Redis. Tenants
// without a stored config fall back to the deployment-level credentials.
type RedisStore struct {
	redis    *redis.Client
	fallback whatsapp.Credentials
}

// NewRedisStore creates a store on the given Redis client. fallback may
// be zero when every tenant carries its own credentials.
func NewRedisStore(redisClient *redis.Client, fallback whatsapp.Credentials) *RedisStore {
	return &RedisStore{redis: redisClient, fallback: fallback}
}

func (s *RedisStore) key(tenantID string) string {
	return fmt.Sprintf("integrations:whatsapp:%s", tenantID)
}

// Get returns the tenant's stored settings, or an empty config scoped to
// the tenant when none exist yet.
func (s *RedisStore) Get(ctx context.Context, tenantID string) (*Config, error) {
	data, err := s.redis.Get(ctx, s.key(tenantID)).Bytes()
	if err == redis.Nil {
		return &Config{TenantID: tenantID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("integrations: get config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("integrations: unmarshal config: %w", err)
	}
	cfg.TenantID = tenantID
	return &cfg, nil
}

// Set stores the tenant's settings.
func (s *RedisStore) Set(ctx context.Context, cfg *Config) error {
	if cfg == nil || cfg.TenantID == "" {
		return fmt.Errorf("integrations: config with tenant id required")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("integrations: marshal config: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.TenantID), data, 0).Err(); err != nil {
		return fmt.Errorf("integrations: set config: %w", err)
	}
	return nil
}

// CredentialsForTenant resolves the tenant's credentials, preferring the
// stored per-tenant settings over the environment fallback.
func (s *RedisStore) CredentialsForTenant(ctx context.Context, tenantID string) (whatsapp.Credentials, error) {
	cfg, err := s.Get(ctx, tenantID)
	if err != nil {
		return whatsapp.Credentials{}, err
	}
	creds := cfg.Credentials(s.fallback)
	if creds.AccessToken == "" || creds.PhoneNumberID == "" {
		return whatsapp.Credentials{}, ErrNotConfigured
	}
	return creds, nil
}
