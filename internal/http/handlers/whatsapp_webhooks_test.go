package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leadwire/leadwire-platform/internal/events"
	"github.com/leadwire/leadwire-platform/internal/integrations"
)

const webhookSample = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "106540352242922"},
        "contacts": [{"wa_id": "919999999999", "profile": {"name": "Asha"}}],
        "messages": [{
          "id": "wamid.inbound-1",
          "from": "919999999999",
          "timestamp": "1756100000",
          "type": "text",
          "text": {"body": "are you open saturday?"}
        }]
      }
    }]
  }]
}`

type fakePublisher struct {
	tenants  []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, tenantID string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.tenants = append(f.tenants, tenantID)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeArchiver struct {
	enabled  bool
	archived [][]byte
	err      error
}

func (f *fakeArchiver) Enabled() bool { return f.enabled }

func (f *fakeArchiver) ArchivePayload(ctx context.Context, tenantID string, receivedAt time.Time, payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.archived = append(f.archived, payload)
	return "webhooks/whatsapp/v1/test-key.json", nil
}

type fakeIntegrationStore struct {
	cfg *integrations.Config
	err error
}

func (f *fakeIntegrationStore) Get(ctx context.Context, tenantID string) (*integrations.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func newWebhookHandler(t *testing.T, publisher *fakePublisher, archive *fakeArchiver, cfg WhatsAppWebhookConfig) *WhatsAppWebhookHandler {
	t.Helper()
	if cfg.Publisher == nil {
		cfg.Publisher = publisher
	}
	if cfg.Processed == nil {
		cfg.Processed = events.NewMemoryProcessedStore()
	}
	if cfg.Archive == nil && archive != nil {
		cfg.Archive = archive
	}
	return NewWhatsAppWebhookHandler(cfg)
}

func webhookRequest(method, tenantID, body string) *http.Request {
	req := httptest.NewRequest(method, "/webhooks/whatsapp/"+tenantID, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("tenantID", tenantID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandleVerifyEchoesChallenge(t *testing.T) {
	handler := newWebhookHandler(t, &fakePublisher{}, nil, WhatsAppWebhookConfig{
		Integrations: &fakeIntegrationStore{cfg: &integrations.Config{VerifyToken: "stored-token"}},
		VerifyToken:  "fallback-token",
	})

	req := webhookRequest(http.MethodGet, "tenant-a", "")
	q := req.URL.Query()
	q.Set("hub.mode", "subscribe")
	q.Set("hub.verify_token", "stored-token")
	q.Set("hub.challenge", "challenge-123")
	req.URL.RawQuery = q.Encode()

	rec := httptest.NewRecorder()
	handler.HandleVerify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "challenge-123" {
		t.Errorf("expected challenge echo, got %q", rec.Body.String())
	}
}

func TestHandleVerifyFallsBackToEnvToken(t *testing.T) {
	handler := newWebhookHandler(t, &fakePublisher{}, nil, WhatsAppWebhookConfig{
		Integrations: &fakeIntegrationStore{err: integrations.ErrNotConfigured},
		VerifyToken:  "fallback-token",
	})

	req := webhookRequest(http.MethodGet, "tenant-a", "")
	q := req.URL.Query()
	q.Set("hub.mode", "subscribe")
	q.Set("hub.verify_token", "fallback-token")
	q.Set("hub.challenge", "ch")
	req.URL.RawQuery = q.Encode()

	rec := httptest.NewRecorder()
	handler.HandleVerify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleVerifyRejectsWrongToken(t *testing.T) {
	handler := newWebhookHandler(t, &fakePublisher{}, nil, WhatsAppWebhookConfig{
		VerifyToken: "expected",
	})

	req := webhookRequest(http.MethodGet, "tenant-a", "")
	q := req.URL.Query()
	q.Set("hub.mode", "subscribe")
	q.Set("hub.verify_token", "wrong")
	q.Set("hub.challenge", "ch")
	req.URL.RawQuery = q.Encode()

	rec := httptest.NewRecorder()
	handler.HandleVerify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleVerifyRejectsWrongMode(t *testing.T) {
	handler := newWebhookHandler(t, &fakePublisher{}, nil, WhatsAppWebhookConfig{
		VerifyToken: "expected",
	})

	req := webhookRequest(http.MethodGet, "tenant-a", "")
	q := req.URL.Query()
	q.Set("hub.mode", "unsubscribe")
	q.Set("hub.verify_token", "expected")
	req.URL.RawQuery = q.Encode()

	rec := httptest.NewRecorder()
	handler.HandleVerify(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestHandleWebhookEnqueuesPayload(t *testing.T) {
	publisher := &fakePublisher{}
	archive := &fakeArchiver{enabled: true}
	handler := newWebhookHandler(t, publisher, archive, WhatsAppWebhookConfig{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, webhookRequest(http.MethodPost, "tenant-a", webhookSample))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(publisher.payloads) != 1 {
		t.Fatalf("expected 1 published payload, got %d", len(publisher.payloads))
	}
	if publisher.tenants[0] != "tenant-a" {
		t.Errorf("expected tenant-a, got %s", publisher.tenants[0])
	}
	if string(publisher.payloads[0]) != webhookSample {
		t.Error("expected raw body to be published unchanged")
	}
	if len(archive.archived) != 1 {
		t.Errorf("expected payload archived, got %d", len(archive.archived))
	}
}

func TestHandleWebhookDropsDuplicateDelivery(t *testing.T) {
	publisher := &fakePublisher{}
	handler := newWebhookHandler(t, publisher, nil, WhatsAppWebhookConfig{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, webhookRequest(http.MethodPost, "tenant-a", webhookSample))
	if rec.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.HandleWebhook(rec, webhookRequest(http.MethodPost, "tenant-a", webhookSample))
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate delivery: expected 200, got %d", rec.Code)
	}

	if len(publisher.payloads) != 1 {
		t.Errorf("expected duplicate to be dropped, got %d published payloads", len(publisher.payloads))
	}
}

func TestHandleWebhookAcksMalformedBody(t *testing.T) {
	publisher := &fakePublisher{}
	archive := &fakeArchiver{enabled: true}
	handler := newWebhookHandler(t, publisher, archive, WhatsAppWebhookConfig{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, webhookRequest(http.MethodPost, "tenant-a", "{not-json"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for malformed body, got %d", rec.Code)
	}
	if len(publisher.payloads) != 0 {
		t.Errorf("expected nothing published, got %d", len(publisher.payloads))
	}
	if len(archive.archived) != 1 {
		t.Errorf("expected malformed body archived for replay, got %d", len(archive.archived))
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	publisher := &fakePublisher{}
	handler := newWebhookHandler(t, publisher, nil, WhatsAppWebhookConfig{
		AppSecret: "app-secret",
	})

	req := webhookRequest(http.MethodPost, "tenant-a", webhookSample)
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(publisher.payloads) != 0 {
		t.Errorf("expected nothing published after signature failure")
	}
}

func TestHandleWebhookAcceptsValidSignature(t *testing.T) {
	publisher := &fakePublisher{}
	handler := newWebhookHandler(t, publisher, nil, WhatsAppWebhookConfig{
		AppSecret: "app-secret",
	})

	req := webhookRequest(http.MethodPost, "tenant-a", webhookSample)
	req.Header.Set("X-Hub-Signature-256", signBody("app-secret", webhookSample))

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(publisher.payloads) != 1 {
		t.Errorf("expected payload published, got %d", len(publisher.payloads))
	}
}

func TestHandleWebhookUnknownTenant(t *testing.T) {
	handler := newWebhookHandler(t, &fakePublisher{}, nil, WhatsAppWebhookConfig{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, webhookRequest(http.MethodPost, "", webhookSample))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing tenant, got %d", rec.Code)
	}
}

func TestHandleWebhookPublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("queue down")}
	archive := &fakeArchiver{enabled: true}
	handler := newWebhookHandler(t, publisher, archive, WhatsAppWebhookConfig{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, webhookRequest(http.MethodPost, "tenant-a", webhookSample))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when enqueue fails, got %d", rec.Code)
	}
	if len(archive.archived) != 1 {
		t.Errorf("expected payload archived before enqueue, got %d", len(archive.archived))
	}
}
