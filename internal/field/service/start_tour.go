package service

import (
	"context"
	"fmt"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/tour"
	"horizon-field/internal/ports"
)

// StartTour transitions the active tour PLANNED -> IN_PROGRESS. The remote
// store is updated first; the local status only flips after the durable
// write succeeded. Tracking then starts best-effort: a refused location
// permission degrades to an untracked tour, it never blocks the start.
func (service *fieldService) StartTour(ctx context.Context) (ports.StartTourResult, error) {
	corrID := generateCorrelationID()

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateTourActive || service.activeTour == nil {
		return ports.StartTourResult{}, ErrNoActiveTour
	}

	t := service.activeTour
	ctx = service.logger.WithRequestID(service.logger.WithTourID(ctx, t.ID), corrID)

	if !t.Status.CanTransitionTo(tour.StatusInProgress) {
		return ports.StartTourResult{}, fmt.Errorf("%w: cannot start a %s tour", ErrTransition, t.Status)
	}

	if err := service.store.UpdateTourStatus(ctx, t.ID, tour.StatusInProgress); err != nil {
		service.logger.Error(ctx, "tour_start_failed", "Remote status update failed; tour stays PLANNED", err, nil)
		return ports.StartTourResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := t.Start(); err != nil {
		return ports.StartTourResult{}, fmt.Errorf("%w: %v", ErrTransition, err)
	}

	service.activateStreamLocked(ctx)

	message := "Tour started"
	if !service.stream.active {
		message = "Tour started; position tracking unavailable"
	}

	service.logger.Info(ctx, "tour_started", "Tour is now in progress", map[string]any{
		"tracking":   service.stream.active,
		"request_id": corrID,
	})

	return ports.StartTourResult{
		TourID:    t.ID,
		Status:    t.Status.String(),
		StartedAt: time.Now().UTC(),
		Tracking:  service.stream.active,
		Message:   message,
	}, nil
}
