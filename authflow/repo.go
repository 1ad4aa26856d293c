// Package authflow holds the pending PKCE exchange context between login
// initiation and the authorization callback.
package authflow

import (
	"time"

	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
)

var ErrNoPendingContext = apperrors.Wrapf(apperrors.ErrNotFound, "no pending login")

// Context is the verifier and state of one in-flight login.
type Context struct {
	CodeVerifier string
	State        string
	CreatedAt    time.Time
}

// Repo stores at most one pending Context. Put replaces any pending one.
// Take returns it and erases it in one step, so a context is used once.
type Repo interface {
	Put(c Context) error
	Take() (Context, error)
}
