// Package session owns the console's authentication session: the durable
// cookie pair holding the token and user snapshot, and the per-request
// state machine that materializes, creates, refreshes, and tears down
// sessions. It is the sole writer of the cookie pair.
package session

import (
	"time"

	"github.com/keyxmakerx/steward/internal/token"
)

// UserRecord is the authenticated user's profile as known to the console.
// Copies may be cached by feature modules but are never mutated outside
// this package.
type UserRecord struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Avatar    string     `json:"avatar,omitempty"`
	Role      token.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Phase is the lifecycle position of a session context.
type Phase int

// Session phases. A context starts Unknown, resolves to Authenticated or
// Anonymous once the store has been read, and passes through
// Authenticating while a login is in flight.
const (
	PhaseUnknown Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
	PhaseAnonymous
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseUnknown:
		return "unknown"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	}
	return "invalid"
}

// State is an immutable snapshot of a session context. The user pointer
// and the authenticated flag can never diverge because the flag is
// derived: a state is authenticated exactly when it carries a user.
// States are only built through the constructors below.
type State struct {
	user  *UserRecord
	phase Phase
}

// Unknown is the initial state before the store has been read.
func Unknown() State { return State{phase: PhaseUnknown} }

// Authenticating is the state while a credential exchange is in flight.
func Authenticating() State { return State{phase: PhaseAuthenticating} }

// Anonymous is the resolved state with no session.
func Anonymous() State { return State{phase: PhaseAnonymous} }

// Authenticated builds a resolved state for the given user. A nil user
// collapses to Anonymous rather than producing an inconsistent state.
func Authenticated(user *UserRecord) State {
	if user == nil {
		return Anonymous()
	}
	return State{user: user, phase: PhaseAuthenticated}
}

// User returns the authenticated user, or nil.
func (s State) User() *UserRecord { return s.user }

// Phase returns the lifecycle phase.
func (s State) Phase() Phase { return s.phase }

// IsAuthenticated reports whether the state carries a user. Structurally
// equal to User() != nil by construction.
func (s State) IsAuthenticated() bool { return s.user != nil }

// IsLoading reports whether the state has not resolved yet: either the
// store has not been read or a login is in flight.
func (s State) IsLoading() bool {
	return s.phase == PhaseUnknown || s.phase == PhaseAuthenticating
}
