package service

import (
	"context"
	"errors"
	"fmt"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/general/horizonapi"
	"horizon-field/internal/ports"
)

// Login authenticates the crew against the remote store and opens the gate.
func (service *fieldService) Login(ctx context.Context, teamName, password string) (ports.GateStatus, error) {
	corrID := generateCorrelationID()
	ctx = service.logger.WithRequestID(ctx, corrID)

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateUnauthenticated {
		return service.statusLocked(), session.ErrInvalidState
	}

	result, err := service.store.Authenticate(ctx, ports.LoginInput{TeamName: teamName, Password: password})
	if err != nil {
		service.logger.Error(ctx, "login_failed", "Authentication against store failed", err, map[string]any{
			"team_name": teamName,
		})
		if errors.Is(err, horizonapi.ErrUnauthorized) {
			return service.statusLocked(), fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return service.statusLocked(), fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	service.sess.Token = result.Token
	service.creds.set(result.Token)
	if err := service.moveGateLocked(ctx, session.StateAuthenticated); err != nil {
		return service.statusLocked(), err
	}
	service.persistSession(ctx)

	service.logger.Info(ctx, "login_succeeded", "Crew authenticated", map[string]any{
		"team_name":  teamName,
		"request_id": corrID,
	})

	return service.statusLocked(), nil
}

// Logout closes the gate unconditionally: the execution bundle is torn down,
// the session wiped, and the state file cleared.
func (service *fieldService) Logout(ctx context.Context) (ports.GateStatus, error) {
	corrID := generateCorrelationID()
	ctx = service.logger.WithRequestID(ctx, corrID)

	service.mu.Lock()
	defer service.mu.Unlock()

	service.teardownTourLocked(ctx)
	service.sess.Reset()
	service.creds.set("")
	service.gate = session.StateUnauthenticated

	if err := service.state.Clear(); err != nil {
		service.logger.Error(ctx, "state_clear_failed", "Failed to clear persisted session state", err, nil)
	}

	service.logger.Info(ctx, "logout_completed", "Session closed", map[string]any{"request_id": corrID})

	return service.statusLocked(), nil
}
