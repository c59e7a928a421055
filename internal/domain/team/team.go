package team

import (
	"errors"
	"strings"
)

// Team is an immutable snapshot fetched from the remote store. It is only
// referenced by the session, never owned or mutated locally.
type Team struct {
	ID      string
	Name    string
	Members string // free-form roster summary from the store
	Status  string // e.g. "ACTIVE"
}

var ErrTeamIDRequired = errors.New("team id is required")

// NewTeam validates identity fields and returns a Team snapshot.
func NewTeam(id, name, members, status string) (*Team, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrTeamIDRequired
	}
	return &Team{
		ID:      id,
		Name:    strings.TrimSpace(name),
		Members: strings.TrimSpace(members),
		Status:  strings.ToUpper(strings.TrimSpace(status)),
	}, nil
}

// Active reports whether the team may log in and run tours.
func (t *Team) Active() bool {
	return t.Status == "" || t.Status == "ACTIVE"
}
