package stop

import (
	"errors"
	"strings"
)

// ConfirmationStatus tracks a stop's collection confirmation.
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "PENDING"
	ConfirmationInFlight  ConfirmationStatus = "IN_FLIGHT"
	ConfirmationCompleted ConfirmationStatus = "COMPLETED"
)

var ErrInvalidConfirmationStatus = errors.New("invalid confirmation status")

// ParseConfirmationStatus normalizes and validates a confirmation status string.
func ParseConfirmationStatus(in string) (ConfirmationStatus, error) {
	status := ConfirmationStatus(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidConfirmationStatus
}

// Valid reports whether status is one of the allowed confirmation constants.
func (status ConfirmationStatus) Valid() bool {
	switch status {
	case ConfirmationPending, ConfirmationInFlight, ConfirmationCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the ConfirmationStatus.
func (status ConfirmationStatus) String() string {
	return string(status)
}

// CanTransitionTo specifies the legal confirmation moves:
// PENDING -> IN_FLIGHT -> {COMPLETED, PENDING}. COMPLETED never regresses.
func (status ConfirmationStatus) CanTransitionTo(next ConfirmationStatus) bool {
	switch status {
	case ConfirmationPending:
		return next == ConfirmationInFlight
	case ConfirmationInFlight:
		return next == ConfirmationCompleted || next == ConfirmationPending
	case ConfirmationCompleted:
		return false
	default:
		return false
	}
}

// Terminal indicates if the confirmation reached its final state.
func (status ConfirmationStatus) Terminal() bool {
	return status == ConfirmationCompleted
}
