package stop

import (
	"errors"
	"strings"
)

// Stop is one tour-client association in the fixed, server-provided order.
// Only the confirmation status mutates during execution; the sequence index
// never changes after load.
type Stop struct {
	ID           string
	ClientID     string
	Sequence     int
	ClientName   string
	Address      string
	Latitude     *float64
	Longitude    *float64
	Confirmation ConfirmationStatus
}

var (
	ErrClientIDRequired = errors.New("stop client id is required")
	ErrInvalidMove      = errors.New("invalid confirmation status move")
)

// NewStop validates identity fields and returns a Stop in PENDING state.
func NewStop(id, clientID string, sequence int, clientName, address string) (*Stop, error) {
	if clientID = strings.TrimSpace(clientID); clientID == "" {
		return nil, ErrClientIDRequired
	}
	return &Stop{
		ID:           strings.TrimSpace(id),
		ClientID:     clientID,
		Sequence:     sequence,
		ClientName:   strings.TrimSpace(clientName),
		Address:      strings.TrimSpace(address),
		Confirmation: ConfirmationPending,
	}, nil
}

// BeginConfirm moves PENDING -> IN_FLIGHT when a confirmation write starts.
func (s *Stop) BeginConfirm() error {
	if !s.Confirmation.CanTransitionTo(ConfirmationInFlight) {
		return ErrInvalidMove
	}
	s.Confirmation = ConfirmationInFlight
	return nil
}

// CompleteConfirm moves IN_FLIGHT -> COMPLETED. It is also the local
// resolution under the keep-optimistic policy when the durable write failed.
func (s *Stop) CompleteConfirm() error {
	if s.Confirmation == ConfirmationCompleted {
		return nil
	}
	if !s.Confirmation.CanTransitionTo(ConfirmationCompleted) {
		return ErrInvalidMove
	}
	s.Confirmation = ConfirmationCompleted
	return nil
}

// ResetConfirm moves IN_FLIGHT -> PENDING (rollback-on-failure policy only).
func (s *Stop) ResetConfirm() error {
	if !s.Confirmation.CanTransitionTo(ConfirmationPending) {
		return ErrInvalidMove
	}
	s.Confirmation = ConfirmationPending
	return nil
}

// Displayed is the optimistic status shown to the caller: a stop whose
// confirmation write is still in flight already renders as COMPLETED.
func (s *Stop) Displayed() ConfirmationStatus {
	if s.Confirmation == ConfirmationInFlight {
		return ConfirmationCompleted
	}
	return s.Confirmation
}

// Confirmed reports whether the stop reached COMPLETED.
func (s *Stop) Confirmed() bool {
	return s.Confirmation == ConfirmationCompleted
}
