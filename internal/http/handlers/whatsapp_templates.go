package handlers

import (
	"context"
	"net/http"

	"github.com/leadwire/leadwire-platform/internal/templates"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

type templateSynchronizer interface {
	Sync(ctx context.Context, actorID string) ([]*templates.Template, error)
}

type templateLister interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*templates.Template, error)
}

// WhatsAppTemplateHandler serves the stored template catalog and the manual
// reconciliation trigger.
type WhatsAppTemplateHandler struct {
	store  templateLister
	syncer templateSynchronizer
	logger *logging.Logger
}

func NewWhatsAppTemplateHandler(store templateLister, syncer templateSynchronizer, logger *logging.Logger) *WhatsAppTemplateHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppTemplateHandler{store: store, syncer: syncer, logger: logger}
}

// HandleList processes GET /api/whatsapp/templates.
func (h *WhatsAppTemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}
	if h.store == nil {
		http.Error(w, "template store not configured", http.StatusServiceUnavailable)
		return
	}

	list, err := h.store.ListByTenant(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list templates", "error", err, "tenant_id", tenantID)
		http.Error(w, "failed to list templates", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"templates": list,
		"count":     len(list),
	})
}

// HandleSync processes POST /api/whatsapp/templates/sync. Partial failures
// still return the synced subset; the provider being unreachable maps to a
// gateway error.
func (h *WhatsAppTemplateHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}
	if h.syncer == nil {
		http.Error(w, "template sync not configured", http.StatusServiceUnavailable)
		return
	}

	actorID := r.Header.Get("X-User-Id")
	synced, err := h.syncer.Sync(r.Context(), actorID)
	if err != nil && len(synced) == 0 {
		h.logger.Error("template sync failed", "error", err, "tenant_id", tenantID)
		http.Error(w, "template sync failed", http.StatusBadGateway)
		return
	}
	if err != nil {
		h.logger.Warn("template sync partially failed", "error", err, "tenant_id", tenantID, "synced", len(synced))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"synced":  synced,
		"count":   len(synced),
		"partial": err != nil,
	})
}
