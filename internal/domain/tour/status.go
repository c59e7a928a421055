package tour

import (
	"errors"
	"strings"
)

// Status is a tour status as stored by the remote store of record.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

var ErrInvalidStatus = errors.New("invalid tour status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed tour status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// Tour statuses only move forward: PLANNED -> IN_PROGRESS -> COMPLETED.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusPlanned:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted
	case StatusCompleted:
		return false
	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusCompleted
}
