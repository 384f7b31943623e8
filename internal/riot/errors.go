package riot

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes callers branch on with errors.Is.
var (
	ErrRateLimited  = errors.New("rate limited (429)")
	ErrUnauthorized = errors.New("api key rejected (401/403)")
	ErrNotFound     = errors.New("not found (404)")
)

// APIError is returned for any non-200 response from the Riot API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("riot api %s returned status %d", e.Endpoint, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is maps status codes onto the sentinel failure classes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsAPIKeyError reports whether err means the API key expired or was revoked.
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
