package idp

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Error is a non-2xx answer from the identity provider. Code and
// Description carry the OAuth2 error body when there is one.
type Error struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("identity provider: %d %s: %s", e.StatusCode, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("identity provider: %d %s", e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("identity provider: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// IsUnauthorized reports whether err is a 401 from the identity provider.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}

// fromRetrieveError converts the x/oauth2 token endpoint error.
func fromRetrieveError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	e := &Error{Code: re.ErrorCode, Description: re.ErrorDescription}
	if re.Response != nil {
		e.StatusCode = re.Response.StatusCode
	}
	return e
}
