package service

import (
	"context"
	"fmt"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/tour"
	"horizon-field/internal/ports"
)

// FinishTour transitions the active tour IN_PROGRESS -> COMPLETED,
// remote-first like StartTour. On success the execution bundle is torn
// down and the gate returns to TEAM_SELECTED; completion is terminal.
// The transition is single-flight: a second call while one is running
// is absorbed as a duplicate.
func (service *fieldService) FinishTour(ctx context.Context) (ports.FinishTourResult, error) {
	corrID := generateCorrelationID()

	service.mu.Lock()

	if service.gate != session.StateTourActive || service.activeTour == nil {
		service.mu.Unlock()
		return ports.FinishTourResult{}, ErrNoActiveTour
	}

	t := service.activeTour
	ctx = service.logger.WithRequestID(service.logger.WithTourID(ctx, t.ID), corrID)

	if !t.Status.CanTransitionTo(tour.StatusCompleted) {
		service.mu.Unlock()
		return ports.FinishTourResult{}, fmt.Errorf("%w: cannot finish a %s tour", ErrTransition, t.Status)
	}
	if service.finishing {
		service.mu.Unlock()
		return ports.FinishTourResult{}, ErrDuplicateRequest
	}
	service.finishing = true
	service.mu.Unlock()

	// the durable write runs unlocked so status queries stay responsive
	err := service.store.UpdateTourStatus(ctx, t.ID, tour.StatusCompleted)

	service.mu.Lock()
	defer service.mu.Unlock()
	service.finishing = false

	if err != nil {
		service.logger.Error(ctx, "tour_finish_failed", "Remote status update failed; tour stays IN_PROGRESS", err, nil)
		return ports.FinishTourResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// the session may have moved on while the write ran (logout, team
	// change, deselect); the remote completion stands, but the bundle is
	// already torn down and the gate must not be touched
	if service.gate != session.StateTourActive || service.activeTour != t {
		service.logger.Info(ctx, "tour_finish_detached", "Session changed during the completion write; local state untouched", nil)
		return ports.FinishTourResult{
			TourID:     t.ID,
			Status:     tour.StatusCompleted.String(),
			FinishedAt: time.Now().UTC(),
			Message:    "Tour completed",
		}, nil
	}

	if err := t.Finish(); err != nil {
		return ports.FinishTourResult{}, fmt.Errorf("%w: %v", ErrTransition, err)
	}

	tourID := t.ID
	service.teardownTourLocked(ctx)
	if err := service.moveGateLocked(ctx, session.StateTeamSelected); err != nil {
		return ports.FinishTourResult{}, err
	}

	service.logger.Info(ctx, "tour_finished", "Tour completed", map[string]any{"request_id": corrID})

	return ports.FinishTourResult{
		TourID:     tourID,
		Status:     tour.StatusCompleted.String(),
		FinishedAt: time.Now().UTC(),
		Message:    "Tour completed",
	}, nil
}
