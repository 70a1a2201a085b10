package shared

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrTimeout        = fmt.Errorf("operation timed out")
	ErrCacheWrite     = fmt.Errorf("token cache write failed")

	// API and fetch errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrFeaturesNotFound = fmt.Errorf("audio features not found")

	// Pagination and merge errors
	ErrPageLimit        = fmt.Errorf("page limit exceeded")
	ErrCursorCycle      = fmt.Errorf("pagination cursor repeated")
	ErrInvalidChunkSize = fmt.Errorf("chunk size must be positive")
	ErrLengthMismatch   = fmt.Errorf("sequence length mismatch")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// StatusError is returned when the Spotify API (or accounts service) answers with a non-2xx status.
//
// It unwraps to [ErrAPIRequest] so callers can treat every fetch failure uniformly with errors.Is.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

// NewStatusError builds a [StatusError], pulling a human-readable message out of the response body.
//
// Spotify API errors look like {"error": {"status": 401, "message": "..."}} while the accounts
// service answers {"error": "invalid_client", "error_description": "..."}.
func NewStatusError(statusCode int, url string, body []byte) *StatusError {
	return &StatusError{StatusCode: statusCode, URL: url, Message: errorMessage(body)}
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("spotify API error: status %d for %s: %s", e.StatusCode, e.URL, e.Message)
}

func (e *StatusError) Unwrap() error {
	return ErrAPIRequest
}

func errorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}

	for _, path := range []string{"error.message", "error_description", "error", "message"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return ""
}
