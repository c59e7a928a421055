package session

import (
	"errors"
	"strings"
)

// State is the coarse navigation state that gates which execution
// components may exist. Exactly one tour may be active per session.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateAuthenticated   State = "AUTHENTICATED"
	StateTeamSelected    State = "TEAM_SELECTED"
	StateTourActive      State = "TOUR_ACTIVE"
)

var ErrInvalidState = errors.New("operation not allowed in current session state")

// Valid reports whether state is one of the gate constants.
func (state State) Valid() bool {
	switch state {
	case StateUnauthenticated, StateAuthenticated, StateTeamSelected, StateTourActive:
		return true
	default:
		return false
	}
}

// String returns the string representation of the State.
func (state State) String() string {
	return string(state)
}

// CanTransitionTo specifies the legal gate moves. Logout (any -> UNAUTHENTICATED)
// and team change (any authenticated state -> AUTHENTICATED) are always legal;
// forward moves go one step at a time.
func (state State) CanTransitionTo(next State) bool {
	if next == StateUnauthenticated {
		return true // logout is unconditional
	}
	switch state {
	case StateUnauthenticated:
		return next == StateAuthenticated
	case StateAuthenticated:
		return next == StateTeamSelected
	case StateTeamSelected:
		return next == StateTourActive || next == StateAuthenticated
	case StateTourActive:
		return next == StateTeamSelected || next == StateAuthenticated
	default:
		return false
	}
}

// Session carries the credential token and the selected team reference.
// It is owned exclusively by the session gate.
type Session struct {
	Token    string
	TeamID   string
	TeamName string
}

// Authenticated reports whether a credential token is present.
func (s *Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// ClearTeam drops the team selection but keeps the credential token.
func (s *Session) ClearTeam() {
	s.TeamID = ""
	s.TeamName = ""
}

// Reset wipes all session state (full logout).
func (s *Session) Reset() {
	s.Token = ""
	s.ClearTeam()
}
