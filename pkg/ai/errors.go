package ai

import (
	"errors"
	"net"
	"strings"
)

var (
	// ErrQuota marks quota exhaustion / rate limiting (HTTP 429).
	ErrQuota = errors.New("ai quota exhausted")
	// ErrSafetyBlocked marks a prompt or answer blocked by safety filters.
	ErrSafetyBlocked = errors.New("ai response blocked by safety filters")
	// ErrEmptyResponse marks a call that succeeded with no text.
	ErrEmptyResponse = errors.New("ai returned empty response")
)

// Outcome labels used in logs and metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeQuota     = "quota"
	OutcomeSafety    = "safety"
	OutcomeTransport = "transport"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

// Classify maps a backend error to an outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrSafetyBlocked):
		return OutcomeSafety
	case errors.Is(err, ErrEmptyResponse):
		return OutcomeEmpty
	case errors.Is(err, ErrQuota) || IsQuotaError(err):
		return OutcomeQuota
	case IsConnectionError(err):
		return OutcomeTransport
	default:
		return OutcomeError
	}
}

// IsConnectionError checks if the error is a network/connection error
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return containsAny(err.Error(), []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"dial tcp",
		"EOF",
	})
}

// IsQuotaError checks if the error indicates API quota exhaustion (429)
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	})
}

func containsAny(s string, indicators []string) bool {
	s = strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(s, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}
