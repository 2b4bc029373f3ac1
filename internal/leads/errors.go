package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrMissingTenant is returned when the context carries no tenant scope
	ErrMissingTenant = errors.New("tenant scope is required")

	// ErrInvalidPhone is returned when a phone number has no digits at all
	ErrInvalidPhone = errors.New("phone number is required")
)
