package api

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
)

var ErrAgentFailed = errors.New("agent failed")

// Error is a non-2xx answer from the LogHealer API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("loghealer api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("loghealer api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is a 401. The session has already been
// invalidated by the transport when this is true.
func IsUnauthorized(err error) bool {
	var e *Error
	return apperrors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	var e *Error
	return apperrors.As(err, &e) && e.StatusCode == http.StatusNotFound
}
