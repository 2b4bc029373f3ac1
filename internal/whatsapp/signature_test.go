package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"object":"whatsapp_business_account","entry":[]}`)
	header := signPayload("app-secret", payload)

	if err := VerifySignature("app-secret", header, payload); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	payload := []byte(`{"object":"whatsapp_business_account"}`)
	header := signPayload("app-secret", payload)

	if err := VerifySignature("app-secret", header, []byte(`{"object":"altered"}`)); err == nil {
		t.Fatalf("expected mismatch for altered payload")
	}
	if err := VerifySignature("other-secret", header, payload); err == nil {
		t.Fatalf("expected mismatch for wrong secret")
	}
}

func TestVerifySignatureMissingInputs(t *testing.T) {
	payload := []byte(`{}`)
	if err := VerifySignature("", signPayload("s", payload), payload); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if err := VerifySignature("s", "", payload); err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func TestVerifySignatureUppercaseHex(t *testing.T) {
	payload := []byte(`{"entry":[]}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(payload)
	upper := "sha256=" + strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))

	if err := VerifySignature("app-secret", upper, payload); err != nil {
		t.Fatalf("expected signature to verify, got %v", err)
	}
}
