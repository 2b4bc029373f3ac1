// Package main runs E2E smoke tests of the WhatsApp messaging flow against a
// running API server.
//
// Scenarios cover:
//   - Health endpoint
//   - Webhook verification handshake (hub.challenge echo)
//   - Inbound message ingestion (signed delivery -> metrics movement)
//   - Duplicate delivery suppression
//   - Tenant status endpoint
//   - Template listing
//   - Outbound send (opt-in; needs real provider credentials)
//
// Usage:
//
//	API_BASE_URL=... WHATSAPP_VERIFY_TOKEN=... go run scripts/e2e/run_e2e.go            # runs all
//	API_BASE_URL=... WHATSAPP_VERIFY_TOKEN=... go run scripts/e2e/run_e2e.go inbound    # runs one
//
// WHATSAPP_APP_SECRET enables delivery signing and must match the server.
// E2E_SEND=1 enables the outbound send scenario.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTenant  = "e2e-tenant"
	maxWaitSecs    = 45
	pollInterval   = 2 * time.Second

	inboundCounter = "leadwire_whatsapp_inbound_messages_total"
)

var (
	apiBase     string
	tenantID    string
	verifyToken string
	appSecret   string

	httpClient = &http.Client{Timeout: 15 * time.Second}
)

type scenario struct {
	name string
	run  func() error
}

func main() {
	apiBase = strings.TrimRight(envOr("API_BASE_URL", defaultBaseURL), "/")
	tenantID = envOr("E2E_TENANT_ID", defaultTenant)
	verifyToken = os.Getenv("WHATSAPP_VERIFY_TOKEN")
	appSecret = os.Getenv("WHATSAPP_APP_SECRET")

	scenarios := []scenario{
		{"health", runHealth},
		{"verify-handshake", runVerifyHandshake},
		{"inbound", runInbound},
		{"duplicate-delivery", runDuplicateDelivery},
		{"status", runStatus},
		{"templates", runTemplates},
		{"send", runSend},
	}

	var only string
	if len(os.Args) > 1 {
		only = os.Args[1]
	}

	fmt.Printf("Running E2E against %s (tenant %s)\n\n", apiBase, tenantID)

	failed := 0
	for _, sc := range scenarios {
		if only != "" && sc.name != only {
			continue
		}
		fmt.Printf("=== %s\n", sc.name)
		if err := sc.run(); err != nil {
			failed++
			fmt.Printf("--- FAIL: %v\n\n", err)
			continue
		}
		fmt.Printf("--- PASS\n\n")
	}

	if failed > 0 {
		fmt.Printf("%d scenario(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("All scenarios passed")
}

func runHealth() error {
	resp, err := httpClient.Get(apiBase + "/health")
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200, got %d", resp.StatusCode)
	}
	return nil
}

func runVerifyHandshake() error {
	if verifyToken == "" {
		fmt.Println("skipping: WHATSAPP_VERIFY_TOKEN not set")
		return nil
	}
	challenge := fmt.Sprintf("ch-%d", time.Now().UnixNano())
	u := fmt.Sprintf("%s/webhooks/whatsapp/%s?hub.mode=subscribe&hub.verify_token=%s&hub.challenge=%s",
		apiBase, tenantID, url.QueryEscape(verifyToken), challenge)

	resp, err := httpClient.Get(u)
	if err != nil {
		return fmt.Errorf("handshake request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if string(body) != challenge {
		return fmt.Errorf("expected challenge echo %q, got %q", challenge, body)
	}
	return nil
}

func runInbound() error {
	before, err := metricTotal(inboundCounter)
	if err != nil {
		return err
	}

	payload := inboundPayload(time.Now().UnixNano())
	if err := postWebhook(payload); err != nil {
		return err
	}

	// The delivery is acked before processing; wait for the pipeline.
	deadline := time.Now().Add(maxWaitSecs * time.Second)
	for time.Now().Before(deadline) {
		after, err := metricTotal(inboundCounter)
		if err != nil {
			return err
		}
		if after > before {
			fmt.Printf("inbound counter moved %.0f -> %.0f\n", before, after)
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("inbound counter did not move within %ds", maxWaitSecs)
}

func runDuplicateDelivery() error {
	payload := inboundPayload(time.Now().UnixNano())
	if err := postWebhook(payload); err != nil {
		return err
	}

	// Let the first copy drain, note the counter, then redeliver.
	time.Sleep(3 * time.Second)
	before, err := metricTotal(inboundCounter)
	if err != nil {
		return err
	}
	if err := postWebhook(payload); err != nil {
		return err
	}
	time.Sleep(3 * time.Second)

	after, err := metricTotal(inboundCounter)
	if err != nil {
		return err
	}
	if after != before {
		return fmt.Errorf("duplicate delivery was reprocessed: counter %.0f -> %.0f", before, after)
	}
	return nil
}

func runStatus() error {
	req, _ := http.NewRequest(http.MethodGet, apiBase+"/api/whatsapp/status", nil)
	req.Header.Set("X-Tenant-Id", tenantID)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var report struct {
		Connected bool   `json:"connected"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	fmt.Printf("connected=%t message=%q\n", report.Connected, report.Message)
	return nil
}

func runTemplates() error {
	req, _ := http.NewRequest(http.MethodGet, apiBase+"/api/whatsapp/templates", nil)
	req.Header.Set("X-Tenant-Id", tenantID)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("templates request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	return nil
}

func runSend() error {
	if os.Getenv("E2E_SEND") != "1" {
		fmt.Println("skipping: set E2E_SEND=1 to exercise the provider")
		return nil
	}
	to := os.Getenv("E2E_SEND_TO")
	if to == "" {
		return fmt.Errorf("E2E_SEND_TO is required when E2E_SEND=1")
	}

	reqBody, _ := json.Marshal(map[string]string{
		"to":   to,
		"body": fmt.Sprintf("LeadWire E2E at %s", time.Now().Format(time.RFC3339)),
	})
	req, _ := http.NewRequest(http.MethodPost, apiBase+"/api/whatsapp/messages", bytes.NewReader(reqBody))
	req.Header.Set("X-Tenant-Id", tenantID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	fmt.Printf("sent: %s\n", body)
	return nil
}

// inboundPayload builds a provider delivery with a unique message ID and
// sender phone so each run creates a fresh lead.
func inboundPayload(nonce int64) []byte {
	phone := "9190000" + strconv.FormatInt(nonce%100000, 10)
	payload := fmt.Sprintf(`{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "e2e-waba",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "e2e-phone"},
        "contacts": [{"profile": {"name": "E2E Contact"}, "wa_id": "%s"}],
        "messages": [{
          "from": "%s",
          "id": "wamid.e2e-%d",
          "timestamp": "%d",
          "type": "text",
          "text": {"body": "Hello from the E2E runner"}
        }]
      }
    }]
  }]
}`, phone, phone, nonce, time.Now().Unix())
	return []byte(payload)
}

func postWebhook(payload []byte) error {
	u := fmt.Sprintf("%s/webhooks/whatsapp/%s", apiBase, tenantID)
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if appSecret != "" {
		req.Header.Set("X-Hub-Signature-256", sign(appSecret, payload))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200 ack, got %d: %s", resp.StatusCode, body)
	}
	return nil
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// metricTotal sums every series of the named counter from /metrics.
func metricTotal(name string) (float64, error) {
	resp, err := httpClient.Get(apiBase + "/metrics")
	if err != nil {
		return 0, fmt.Errorf("metrics request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("metrics endpoint returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, name) {
			continue
		}
		rest := line[len(name):]
		if rest != "" && rest[0] != '{' && rest[0] != ' ' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		total += value
	}
	return total, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
