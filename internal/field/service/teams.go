package service

import (
	"context"
	"fmt"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/ports"
)

// ListTodayTeams returns the active teams that have work scheduled today:
// a team appears when at least one of its tours is dated today and is not
// yet completed.
func (service *fieldService) ListTodayTeams(ctx context.Context) ([]ports.TeamView, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if !service.sess.Authenticated() {
		return nil, session.ErrInvalidState
	}

	teams, err := service.store.FetchTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tours, err := service.store.FetchTours(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	today := time.Now().UTC()
	scheduled := make(map[string]bool, len(tours))
	for _, t := range tours {
		if t.ScheduledFor(today) && !t.Status.Terminal() {
			scheduled[t.TeamID] = true
		}
	}

	views := make([]ports.TeamView, 0, len(teams))
	for _, t := range teams {
		if !t.Active() || !scheduled[t.ID] {
			continue
		}
		views = append(views, ports.TeamView{TeamID: t.ID, Name: t.Name, Members: t.Members})
	}
	return views, nil
}

// SelectTeam binds the session to a team and advances the gate.
func (service *fieldService) SelectTeam(ctx context.Context, teamID string) (ports.GateStatus, error) {
	corrID := generateCorrelationID()
	ctx = service.logger.WithRequestID(ctx, corrID)

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateAuthenticated {
		return service.statusLocked(), session.ErrInvalidState
	}

	teams, err := service.store.FetchTeams(ctx)
	if err != nil {
		return service.statusLocked(), fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	for _, t := range teams {
		if t.ID != teamID {
			continue
		}
		if !t.Active() {
			return service.statusLocked(), fmt.Errorf("%w: team %s is not active", ErrTeamNotFound, teamID)
		}

		service.sess.TeamID = t.ID
		service.sess.TeamName = t.Name
		if err := service.moveGateLocked(ctx, session.StateTeamSelected); err != nil {
			service.sess.ClearTeam()
			return service.statusLocked(), err
		}
		service.persistSession(ctx)

		service.logger.Info(ctx, "team_selected", "Team bound to session", map[string]any{
			"team_id":   t.ID,
			"team_name": t.Name,
		})
		return service.statusLocked(), nil
	}

	return service.statusLocked(), fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
}

// ChangeTeam drops the team selection and returns the gate to AUTHENTICATED.
// An active tour is torn down first; exactly one team drives at a time.
func (service *fieldService) ChangeTeam(ctx context.Context) (ports.GateStatus, error) {
	corrID := generateCorrelationID()
	ctx = service.logger.WithRequestID(ctx, corrID)

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateTeamSelected && service.gate != session.StateTourActive {
		return service.statusLocked(), session.ErrInvalidState
	}

	service.teardownTourLocked(ctx)
	previous := service.sess.TeamID
	service.sess.ClearTeam()
	if err := service.moveGateLocked(ctx, session.StateAuthenticated); err != nil {
		return service.statusLocked(), err
	}
	service.persistSession(ctx)

	service.logger.Info(ctx, "team_cleared", "Team selection dropped", map[string]any{"team_id": previous})

	return service.statusLocked(), nil
}
