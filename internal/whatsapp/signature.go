package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// VerifySignature validates the X-Hub-Signature-256 header against the raw
// webhook body. The header carries "sha256=<hex hmac>" keyed by the app
// secret.
func VerifySignature(appSecret, signatureHeader string, payload []byte) error {
	if appSecret == "" {
		return errors.New("whatsapp: app secret not configured")
	}
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return errors.New("whatsapp: missing signature header")
	}
	sig = strings.TrimPrefix(sig, "sha256=")

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
		return errors.New("whatsapp: signature mismatch")
	}
	return nil
}
