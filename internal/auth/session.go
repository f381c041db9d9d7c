// ABOUTME: Authenticated game session and its Created -> Authenticating -> terminal state machine
// ABOUTME: Only an Authenticated session yields launch bindings

package auth

import (
	"errors"
	"fmt"
	"sync"
)

// State is a session lifecycle state.
type State int

const (
	Created State = iota
	Authenticating
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidCredentials is returned when the auth server rejects the login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotAuthenticated is returned when a session is used before a
	// successful authentication.
	ErrNotAuthenticated = errors.New("session is not authenticated")
)

// Profile is a game profile owned by the account.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Legacy bool   `json:"legacy,omitempty"`
}

// UserType is the user_type launch binding.
func (p Profile) UserType() string {
	if p.Legacy {
		return "legacy"
	}
	return "mojang"
}

// Session holds the tokens of one login. The password is never stored.
type Session struct {
	Username    string
	AccessToken string
	ClientToken string
	Selected    Profile
	Available   []Profile

	mu    sync.Mutex
	state State
	err   error
}

// NewSession creates a session in the Created state.
func NewSession(username, clientToken string) *Session {
	return &Session{Username: username, ClientToken: clientToken}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure that moved the session to Unauthenticated.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Ready returns nil for an Authenticated session and ErrNotAuthenticated otherwise.
func (s *Session) Ready() error {
	if s == nil || s.State() != Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// SessionID is the composite auth_session binding.
func (s *Session) SessionID() string {
	return "token:" + s.AccessToken + ":" + s.Selected.ID
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Created {
		return fmt.Errorf("cannot authenticate a session in state %s", s.state)
	}
	s.state = Authenticating
	return nil
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Unauthenticated
		s.err = err
		return
	}
	s.state = Authenticated
}
