package auth

import (
	"github.com/jrsteele09/loghealer-client/users"
)

// State is the session lifecycle state.
type State int

const (
	StateUnresolved State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Transition is published to OnChange observers. User is nil unless To is
// StateAuthenticated.
type Transition struct {
	From State
	To   State
	User *users.User
}

// allowed reports whether from -> to is a legal edge. Nothing returns to
// StateUnresolved.
func allowed(from, to State) bool {
	switch from {
	case StateUnresolved:
		return to == StateAuthenticated || to == StateUnauthenticated
	case StateAuthenticated:
		return to == StateUnauthenticated
	case StateUnauthenticated:
		return to == StateAuthenticated
	}
	return false
}
