package entities

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing bot credential")
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrSecretMismatch    = errors.New("webhook secret mismatch")
	ErrBaseURLMissing    = errors.New("base url not configured")
	ErrInvalidLogin      = errors.New("invalid credentials")
)

// ConfigError reports a tenant configuration value that is required but absent.
type ConfigError struct {
	TenantID string
	Key      string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tenant %q: %s: %v", e.TenantID, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError is returned when a reservation field fails its stage rule.
// It is always recoverable: the user is asked again.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DeliveryError wraps a failed call to the messaging platform.
type DeliveryError struct {
	Kind           ActionKind
	ConversationID string
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %s: %v", e.Kind, e.ConversationID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
