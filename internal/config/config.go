package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	CORSAllowedOrigins []string

	// Per-IP rate limit on the public webhook route. Zero disables it.
	WebhookRateLimit float64
	WebhookRateBurst int

	// WhatsApp Business provider settings. Token/phone-number values act as
	// the environment-level fallback when a tenant has no integration config.
	WhatsAppGraphBaseURL      string
	WhatsAppAPIVersion        string
	WhatsAppAccessToken       string
	WhatsAppPhoneNumberID     string
	WhatsAppBusinessAccountID string
	WhatsAppVerifyToken       string
	WhatsAppAppSecret         string
	WhatsAppTimeout           time.Duration
	WhatsAppMaxRetries        int
	WhatsAppRetryBackoff      time.Duration

	// Webhook ingest queue
	UseMemoryQueue bool
	IngestQueueURL string

	// Template reconciliation poller
	TemplateSyncInterval time.Duration
	TemplateSyncTenants  []string

	// Message index backend: "postgres", "dynamodb", or "memory"
	MessageIndexBackend string
	MessageIndexTable   string

	// Raw webhook payload archive
	ArchiveBucket string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Notification email
	EmailProvider     string
	SendGridAPIKey    string
	NotifyFromEmail   string
	NotifyFromName    string
	NotifyMaxBodyLen  int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 0),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 20),

		WhatsAppGraphBaseURL:      getEnv("WHATSAPP_GRAPH_BASE_URL", "https://graph.facebook.com"),
		WhatsAppAPIVersion:        getEnv("WHATSAPP_API_VERSION", "v19.0"),
		WhatsAppAccessToken:       getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID:     getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppBusinessAccountID: getEnv("WHATSAPP_BUSINESS_ACCOUNT_ID", ""),
		WhatsAppVerifyToken:       getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:         getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppTimeout:           getEnvAsDuration("WHATSAPP_TIMEOUT", 15*time.Second),
		WhatsAppMaxRetries:        getEnvAsInt("WHATSAPP_MAX_RETRIES", 3),
		WhatsAppRetryBackoff:      getEnvAsDuration("WHATSAPP_RETRY_BACKOFF", 250*time.Millisecond),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", true),
		IngestQueueURL: getEnv("INGEST_QUEUE_URL", ""),

		TemplateSyncInterval: getEnvAsDuration("TEMPLATE_SYNC_INTERVAL", 0),
		TemplateSyncTenants:  getEnvAsList("TEMPLATE_SYNC_TENANTS"),

		MessageIndexBackend: strings.ToLower(getEnv("MESSAGE_INDEX_BACKEND", "")),
		MessageIndexTable:   getEnv("MESSAGE_INDEX_TABLE", "whatsapp_message_index"),

		ArchiveBucket: getEnv("WEBHOOK_ARCHIVE_BUCKET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		NotifyFromEmail:  getEnv("NOTIFY_FROM_EMAIL", ""),
		NotifyFromName:   getEnv("NOTIFY_FROM_NAME", "LeadWire"),
		NotifyMaxBodyLen: getEnvAsInt("NOTIFY_MAX_BODY_LEN", 120),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
