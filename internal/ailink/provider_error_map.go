package ailink

import (
	"context"
	"errors"
	"strings"

	"github.com/sonit33/aarya-sub000/internal/ailink/driver"
)

// FailureCode classifies gateway failures for logs and reports.
type FailureCode string

const (
	FailureMissingToken FailureCode = "AILINK_MISSING_TOKEN"
	FailureTimeout      FailureCode = "AILINK_PROVIDER_TIMEOUT"
	FailureCanceled     FailureCode = "AILINK_CANCELED"
	FailureAuth         FailureCode = "AILINK_PROVIDER_AUTH"
	FailureRateLimit    FailureCode = "AILINK_PROVIDER_RATE_LIMIT"
	FailureUnavailable  FailureCode = "AILINK_PROVIDER_UNAVAILABLE"
	FailureBadRequest   FailureCode = "AILINK_PROVIDER_BAD_REQUEST"
	FailureEmpty        FailureCode = "AILINK_EMPTY_CHOICES"
	FailureProvider     FailureCode = "AILINK_PROVIDER_ERROR"
)

// Failure is a classified gateway error.
type Failure struct {
	Code    FailureCode `json:"code"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

// Classify maps a gateway error to a Failure. It returns nil for a nil error.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrMissingToken):
		return &Failure{Code: FailureMissingToken, Message: "llm bearer token is missing"}
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Code: FailureTimeout, Message: "provider request timed out"}
	case errors.Is(err, context.Canceled):
		return &Failure{Code: FailureCanceled, Message: "request canceled"}
	case errors.Is(err, driver.ErrEmptyChoices):
		return &Failure{Code: FailureEmpty, Message: "provider returned no choices"}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := strings.TrimSpace(perr.Message)
		switch {
		case status == 401 || status == 403:
			return &Failure{Code: FailureAuth, Message: "provider authentication failed", Details: details}
		case status == 429:
			return &Failure{Code: FailureRateLimit, Message: "provider rate limited", Details: details}
		case status >= 500 && status <= 599:
			return &Failure{Code: FailureUnavailable, Message: "provider unavailable", Details: details}
		case status >= 400 && status <= 499:
			return &Failure{Code: FailureBadRequest, Message: "provider rejected request", Details: details}
		}
	}

	return &Failure{Code: FailureProvider, Message: "provider request failed", Details: err.Error()}
}
