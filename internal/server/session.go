package server

import (
	"strings"

	cerr "simplechat/internal/errors"
)

// State is the authentication state of one connection.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the identity bound to one connection.  It starts
// unauthenticated and moves to authenticated exactly once.
//
// Session has no lock of its own; the Registry serialises mutation.
type Session struct {
	loginID string
	state   State
}

// LoginID returns the identifier set by Login, or "".
func (s Session) LoginID() string { return s.loginID }

// State returns the current state.
func (s Session) State() State { return s.state }

// Authenticated reports whether Login has succeeded.
func (s Session) Authenticated() bool { return s.state == StateAuthenticated }

// Login authenticates the session as id.  A session can log in only
// once; later calls fail with ErrAlreadyLoggedIn and leave the stored
// id untouched.
func (s *Session) Login(id string) error {
	if s.state == StateAuthenticated {
		return cerr.ErrAlreadyLoggedIn
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return cerr.ErrMissingLoginID
	}
	s.loginID = id
	s.state = StateAuthenticated
	return nil
}
