package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRateLimited marks provider errors worth retrying after a pause:
// throttling and temporary overload.
var ErrRateLimited = errors.New("provider rate limited")

// statusError builds the error for a non-200 provider response.
func statusError(provider string, status int, body []byte) error {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
		return fmt.Errorf("%w: %s returned status %d: %s", ErrRateLimited, provider, status, string(body))
	default:
		return fmt.Errorf("%s returned status %d: %s", provider, status, string(body))
	}
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "overloaded")
}
