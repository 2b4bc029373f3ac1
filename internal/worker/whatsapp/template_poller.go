package whatsappworker

import (
	"context"
	"time"

	"github.com/leadwire/leadwire-platform/internal/observability/metrics"
	"github.com/leadwire/leadwire-platform/internal/templates"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// templateSyncActor marks poller-initiated template writes.
const templateSyncActor = "system"

type templateSyncer interface {
	Sync(ctx context.Context, actorID string) ([]*templates.Template, error)
}

// TemplatePoller periodically reconciles stored templates against the
// provider catalog for each configured tenant.
type TemplatePoller struct {
	syncer   templateSyncer
	metrics  *metrics.MessagingMetrics
	logger   *logging.Logger
	interval time.Duration
	tenants  []string
}

func NewTemplatePoller(syncer templateSyncer, m *metrics.MessagingMetrics, logger *logging.Logger) *TemplatePoller {
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplatePoller{
		syncer:   syncer,
		metrics:  m,
		logger:   logger,
		interval: time.Hour,
	}
}

func (p *TemplatePoller) WithInterval(d time.Duration) *TemplatePoller {
	if d > 0 {
		p.interval = d
	}
	return p
}

func (p *TemplatePoller) WithTenants(tenants []string) *TemplatePoller {
	p.tenants = tenants
	return p
}

func (p *TemplatePoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *TemplatePoller) drain(ctx context.Context) {
	if p.syncer == nil || len(p.tenants) == 0 {
		return
	}
	for _, tenantID := range p.tenants {
		tenantCtx := tenancy.WithTenantID(ctx, tenantID)
		synced, err := p.syncer.Sync(tenantCtx, templateSyncActor)
		switch {
		case err != nil && len(synced) == 0:
			p.metrics.ObserveTemplateSync("error")
			p.logger.Warn("template sync failed", "error", err, "tenant_id", tenantID)
		case err != nil:
			// Reconciliation isolates per-template failures, so a partial
			// run still lands the templates it could.
			p.metrics.ObserveTemplateSync("partial")
			p.logger.Warn("template sync partially failed",
				"error", err,
				"tenant_id", tenantID,
				"synced", len(synced),
			)
		case len(synced) > 0:
			p.metrics.ObserveTemplateSync("synced")
			p.logger.Info("templates synced", "tenant_id", tenantID, "count", len(synced))
		default:
			p.metrics.ObserveTemplateSync("noop")
		}
	}
}
