package service

import (
	"context"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/general/jwt"
	"horizon-field/internal/general/statefile"
	"horizon-field/internal/ports"
)

// Status reports the current gate state and execution bundle.
func (service *fieldService) Status(ctx context.Context) ports.GateStatus {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.expireSessionLocked(ctx)
	return service.statusLocked()
}

// expireSessionLocked forces a logout once the session token's exp claim is
// in the past. The agent holds no signing secret, the claim alone decides.
// Caller holds mu.
func (service *fieldService) expireSessionLocked(ctx context.Context) {
	if service.sess.Token == "" || !jwt.Expired(service.sess.Token, time.Now().UTC()) {
		return
	}

	service.logger.Info(ctx, "session_expired", "Session token lapsed; forcing logout", nil)

	service.teardownTourLocked(ctx)
	service.sess.Reset()
	service.creds.set("")
	service.gate = session.StateUnauthenticated

	if err := service.state.Clear(); err != nil {
		service.logger.Error(ctx, "state_clear_failed", "Failed to clear persisted session state", err, nil)
	}
}

// statusLocked builds a GateStatus snapshot. Caller holds mu.
func (service *fieldService) statusLocked() ports.GateStatus {
	out := ports.GateStatus{
		State:    service.gate.String(),
		TeamID:   service.sess.TeamID,
		TeamName: service.sess.TeamName,
		Tracking: service.stream.active,
		Channel:  string(service.channel.State()),
	}
	if service.activeTour != nil {
		view := tourView(service.activeTour)
		out.ActiveTour = &view
	}
	return out
}

// moveGateLocked performs a checked gate transition. Caller holds mu.
func (service *fieldService) moveGateLocked(ctx context.Context, next session.State) error {
	if !service.gate.CanTransitionTo(next) {
		service.logger.Error(ctx, "gate_transition_rejected", "Illegal session gate transition", session.ErrInvalidState, map[string]any{
			"from": service.gate.String(),
			"to":   next.String(),
		})
		return session.ErrInvalidState
	}
	service.gate = next
	return nil
}

// teardownTourLocked dismantles the execution bundle in a fixed order:
// stop the position stream, drop the transport channel, then release the
// tour and its stops. Safe to call when no tour is active. Caller holds mu.
func (service *fieldService) teardownTourLocked(ctx context.Context) {
	service.deactivateStreamLocked(ctx)
	service.channel.Disconnect()

	if service.activeTour != nil {
		service.logger.Info(service.logger.WithTourID(ctx, service.activeTour.ID),
			"tour_released", "Active tour released", nil)
	}
	service.activeTour = nil
	service.stops = nil
	service.finishing = false
}

// persistSession writes the surviving session fields to the state file.
// A write failure is logged, never surfaced: persistence is a convenience,
// the in-memory gate stays authoritative.
func (service *fieldService) persistSession(ctx context.Context) {
	err := service.state.Save(statefile.State{
		Token:    service.sess.Token,
		TeamID:   service.sess.TeamID,
		TeamName: service.sess.TeamName,
	})
	if err != nil {
		service.logger.Error(ctx, "state_persist_failed", "Failed to persist session state", err, nil)
	}
}
