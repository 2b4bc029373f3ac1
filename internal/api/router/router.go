package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadwire/leadwire-platform/internal/http/handlers"
	httpmiddleware "github.com/leadwire/leadwire-platform/internal/http/middleware"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Webhooks           *handlers.WhatsAppWebhookHandler
	Messages           *handlers.WhatsAppMessageHandler
	Templates          *handlers.WhatsAppTemplateHandler
	Status             *handlers.WhatsAppStatusHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// WebhookRateLimit caps provider webhook traffic per source IP.
	// Zero disables the limiter.
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.HealthCheck)
		if cfg.Webhooks != nil {
			public.Route("/webhooks/whatsapp/{tenantID}", func(wh chi.Router) {
				if cfg.WebhookRateLimit > 0 {
					wh.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst))
				}
				wh.Get("/", cfg.Webhooks.HandleVerify)
				wh.Post("/", cfg.Webhooks.HandleWebhook)
			})
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant-scoped API routes
	r.Route("/api", func(tenant chi.Router) {
		tenant.Use(requireTenantID)

		tenant.Route("/whatsapp", func(wa chi.Router) {
			if cfg.Messages != nil {
				wa.Post("/messages", cfg.Messages.HandleSend)
			}
			if cfg.Templates != nil {
				wa.Get("/templates", cfg.Templates.HandleList)
				wa.Post("/templates/sync", cfg.Templates.HandleSync)
			}
			if cfg.Status != nil {
				wa.Get("/status", cfg.Status.HandleStatus)
			}
		})
	})

	return r
}
