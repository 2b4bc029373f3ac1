package leads

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// matchPredicates orders phone comparisons strictest first. The ladder
// runs one predicate across every lead before falling back to the next,
// so an exact match always beats a suffix match on a different lead.
var matchPredicates = []func(stored, incoming string) bool{
	func(stored, incoming string) bool { return stored == incoming },
	func(stored, incoming string) bool { return stored == "+"+incoming || incoming == "+"+stored },
	func(stored, incoming string) bool {
		s, i := NormalizePhone(stored), NormalizePhone(incoming)
		return s != "" && s == i
	},
	func(stored, incoming string) bool {
		s, i := lastDigits(stored, 10), lastDigits(incoming, 10)
		return s != "" && s == i
	},
}

// Resolver maps inbound sender phone numbers to pipeline leads,
// creating a lead when no existing one matches.
type Resolver struct {
	store  Store
	logger *logging.Logger
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Find returns the tenant's lead matching the phone, without creating one.
func (r *Resolver) Find(ctx context.Context, phone string) (*Lead, error) {
	tenantID, ok := tenancy.TenantIDFromContext(ctx)
	if !ok {
		return nil, ErrMissingTenant
	}
	phone = strings.TrimSpace(phone)
	if NormalizePhone(phone) == "" {
		return nil, ErrInvalidPhone
	}

	existing, err := r.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("leads: list for match: %w", err)
	}
	for _, predicate := range matchPredicates {
		for _, lead := range existing {
			if predicate(lead.Phone, phone) {
				return lead, nil
			}
		}
	}
	return nil, ErrLeadNotFound
}

// Resolve finds the lead for an inbound sender, creating one when no
// existing lead matches. The bool reports whether a lead was created.
func (r *Resolver) Resolve(ctx context.Context, phone, contactName string) (*Lead, bool, error) {
	lead, err := r.Find(ctx, phone)
	if err == nil {
		return lead, false, nil
	}
	if err != ErrLeadNotFound {
		return nil, false, err
	}

	tenantID, _ := tenancy.TenantIDFromContext(ctx)
	lead = &Lead{
		TenantID: tenantID,
		Name:     defaultLeadName(contactName, phone),
		Phone:    strings.TrimSpace(phone),
		Status:   StatusNew,
		Source:   SourceWhatsAppInbound,
		Tags:     []string{"whatsapp"},
	}
	if err := r.store.Create(ctx, lead); err != nil {
		return nil, false, fmt.Errorf("leads: create from inbound: %w", err)
	}
	r.logger.Info("lead created from whatsapp inbound",
		"tenant_id", tenantID,
		"lead_id", lead.ID,
		"name", lead.Name)
	return lead, true, nil
}

// defaultLeadName prefers the webhook contact profile name and falls
// back to a placeholder built from the last four digits of the sender.
func defaultLeadName(contactName, phone string) string {
	if name := strings.TrimSpace(contactName); name != "" {
		return name
	}
	digits := NormalizePhone(phone)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "WhatsApp Contact " + digits
}
