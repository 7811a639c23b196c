package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable is returned by the Unavailable translator.
var ErrUnavailable = errors.New("translation unavailable: no provider configured")

const (
	ReasonAuth      = "auth"
	ReasonRateLimit = "rate_limit"
	ReasonNetwork   = "network"
	ReasonEmpty     = "empty"
	ReasonProvider  = "provider"
)

type TranslationError struct {
	Provider string
	Reason   string
	Status   int
	Err      error
}

func (e *TranslationError) Error() string {
	msg := fmt.Sprintf("%s translation failed (%s", e.Provider, e.Reason)
	if e.Status != 0 {
		msg += fmt.Sprintf(", status %d", e.Status)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// reasonForStatus maps a provider HTTP status to a failure reason.
func reasonForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ReasonNetwork
	default:
		return ReasonProvider
	}
}

func transportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &TranslationError{Provider: provider, Reason: ReasonNetwork, Err: err}
}
