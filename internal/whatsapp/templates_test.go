package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const templateListFixture = `{
  "data": [
    {
      "id": "tmpl-1",
      "name": "welcome_offer",
      "language": "en_US",
      "status": "APPROVED",
      "category": "MARKETING",
      "components": [
        {"type": "HEADER", "format": "TEXT", "text": "Hi {{1}}"},
        {"type": "BODY", "text": "Welcome to {{1}}, enjoy {{2}}."}
      ]
    },
    {
      "id": "tmpl-2",
      "name": "visit_reminder",
      "status": "PENDING",
      "language_policy": {"options": [{"code": "pt_BR"}]}
    }
  ]
}`

func TestListTemplatesPrefersBusinessAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/waba-900/message_templates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(templateListFixture))
	}))
	defer server.Close()

	client := newTestClient(server, Config{})
	creds := testCreds()
	creds.BusinessAccountID = "waba-900"

	templates, err := client.ListTemplates(context.Background(), creds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].Name != "welcome_offer" || templates[0].Status != "APPROVED" {
		t.Fatalf("unexpected first template %+v", templates[0])
	}
	if templates[0].BodyText() != "Welcome to {{1}}, enjoy {{2}}." {
		t.Fatalf("unexpected body text %q", templates[0].BodyText())
	}
	if templates[1].LanguageCode() != "pt_BR" {
		t.Fatalf("expected policy language to win, got %q", templates[1].LanguageCode())
	}
}

func TestListTemplatesFallsBackToPhoneNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/5550001111/message_templates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server, Config{})
	templates, err := client.ListTemplates(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 0 {
		t.Fatalf("expected empty list, got %d", len(templates))
	}
}

func TestListTemplatesRetriesServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(templateListFixture))
	}))
	defer server.Close()

	client := newTestClient(server, Config{MaxRetries: 2})
	templates, err := client.ListTemplates(context.Background(), testCreds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates after retry, got %d", len(templates))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestProviderTemplateLanguageCode(t *testing.T) {
	cases := []struct {
		name     string
		template ProviderTemplate
		want     string
	}{
		{"flat field", ProviderTemplate{Language: "es_MX"}, "es_MX"},
		{"policy wins", ProviderTemplate{Language: "en_US", LanguagePolicy: &TemplateLanguagePolicy{Options: []struct {
			Code string `json:"code"`
		}{{Code: "hi_IN"}}}}, "hi_IN"},
		{"default", ProviderTemplate{}, "en_US"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.template.LanguageCode(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
