package driver

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingAPIKey is returned when a driver has no bearer token configured.
var ErrMissingAPIKey = errors.New("api key is required")

// ErrEmptyChoices is returned when a provider answers 2xx without any choice.
var ErrEmptyChoices = errors.New("empty response choices")

// ProviderError is returned when a provider responds with a non-2xx status.
//
// Drivers should populate RawResponse with the provider response body bytes.
// RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// Unauthorized reports whether the provider rejected the token.
func (e *ProviderError) Unauthorized() bool {
	return e != nil && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
