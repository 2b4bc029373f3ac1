package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrValidation marks requests rejected before any network call.
	ErrValidation = errors.New("whatsapp: invalid request")

	// ErrProvider marks failures reported by the provider API.
	ErrProvider = errors.New("whatsapp: provider error")
)

// APIError carries the provider's error payload for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
	Subcode    int
	FbtraceID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("whatsapp: %s (status=%d code=%d)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("whatsapp: http status %d", e.StatusCode)
}

// Unwrap lets callers classify provider failures with errors.Is.
func (e *APIError) Unwrap() error {
	return ErrProvider
}

func decodeAPIError(status int, body []byte) error {
	var wrapper struct {
		Error struct {
			Message   string `json:"message"`
			Type      string `json:"type"`
			Code      int    `json:"code"`
			Subcode   int    `json:"error_subcode"`
			FbtraceID string `json:"fbtrace_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
		return &APIError{StatusCode: status, Message: string(body)}
	}
	return &APIError{
		StatusCode: status,
		Message:    wrapper.Error.Message,
		Type:       wrapper.Error.Type,
		Code:       wrapper.Error.Code,
		Subcode:    wrapper.Error.Subcode,
		FbtraceID:  wrapper.Error.FbtraceID,
	}
}
