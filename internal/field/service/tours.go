package service

import (
	"context"
	"fmt"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/ports"
)

// ListTours returns the selected team's tours that still need work, in
// store order. Completed tours are hidden from the execution list.
func (service *fieldService) ListTours(ctx context.Context) ([]ports.TourView, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateTeamSelected && service.gate != session.StateTourActive {
		return nil, session.ErrInvalidState
	}

	tours, err := service.store.FetchTours(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := make([]ports.TourView, 0, len(tours))
	for _, t := range tours {
		if t.TeamID != service.sess.TeamID || t.Status.Terminal() {
			continue
		}
		views = append(views, tourView(t))
	}
	return views, nil
}

// SelectTour activates a tour: it loads the stop sequence, brings up the
// transport channel, and moves the gate to TOUR_ACTIVE. Only one tour may
// be active at a time; selecting while one is active is rejected.
func (service *fieldService) SelectTour(ctx context.Context, tourID string) (ports.TourDetail, error) {
	corrID := generateCorrelationID()
	ctx = service.logger.WithRequestID(service.logger.WithTourID(ctx, tourID), corrID)

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateTeamSelected {
		return ports.TourDetail{}, session.ErrInvalidState
	}

	tours, err := service.store.FetchTours(ctx)
	if err != nil {
		return ports.TourDetail{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	for _, t := range tours {
		if t.ID != tourID {
			continue
		}
		if t.TeamID != service.sess.TeamID {
			return ports.TourDetail{}, fmt.Errorf("%w: %s belongs to another team", ErrTourNotFound, tourID)
		}
		if t.Status.Terminal() {
			return ports.TourDetail{}, fmt.Errorf("%w: tour %s is already completed", ErrTransition, tourID)
		}

		stops, err := service.store.FetchStops(ctx, tourID)
		if err != nil {
			return ports.TourDetail{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		service.activeTour = t
		service.stops = stops
		if err := service.moveGateLocked(ctx, session.StateTourActive); err != nil {
			service.activeTour = nil
			service.stops = nil
			return ports.TourDetail{}, err
		}

		service.channel.Connect(ctx)

		// a tour resumed mid-execution starts tracking immediately
		if t.Active() {
			service.activateStreamLocked(ctx)
		}

		service.logger.Info(ctx, "tour_selected", "Tour activated", map[string]any{
			"status":     t.Status.String(),
			"stop_count": len(stops),
		})

		return ports.TourDetail{
			Tour:     tourView(t),
			Stops:    stopViews(stops),
			Tracking: service.stream.active,
		}, nil
	}

	return ports.TourDetail{}, fmt.Errorf("%w: %s", ErrTourNotFound, tourID)
}

// DeselectTour releases the active tour without changing its remote status
// and returns the gate to TEAM_SELECTED.
func (service *fieldService) DeselectTour(ctx context.Context) (ports.GateStatus, error) {
	corrID := generateCorrelationID()
	ctx = service.logger.WithRequestID(ctx, corrID)

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateTourActive {
		return service.statusLocked(), session.ErrInvalidState
	}

	service.teardownTourLocked(ctx)
	if err := service.moveGateLocked(ctx, session.StateTeamSelected); err != nil {
		return service.statusLocked(), err
	}

	return service.statusLocked(), nil
}

// ListStops returns the active tour's stops in their fixed order, with
// optimistic confirmation statuses.
func (service *fieldService) ListStops(ctx context.Context) ([]ports.StopView, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.gate != session.StateTourActive || service.activeTour == nil {
		return nil, ErrNoActiveTour
	}
	return stopViews(service.stops), nil
}
