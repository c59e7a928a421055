package service

import (
	"context"
	"fmt"
	"time"

	"horizon-field/internal/domain/session"
	"horizon-field/internal/domain/stop"
	"horizon-field/internal/general/contracts"
	"horizon-field/internal/ports"
)

// ConfirmStop records a collected stop. The sequence is fixed:
//
//  1. the gate must hold an active tour and the tour must be IN_PROGRESS
//  2. a stop already COMPLETED is absorbed silently
//  3. a confirmation already running for the same client is absorbed
//     silently (single-flight)
//  4. the stop flips to IN_FLIGHT and immediately renders as COMPLETED
//  5. the durable write goes to the remote store
//  6. success resolves the stop to COMPLETED and sends a lossy mirror
//     event on the transport channel
//  7. failure resolves by policy, either keeping the optimistic COMPLETED
//     or rolling back to PENDING
func (service *fieldService) ConfirmStop(ctx context.Context, clientID string) (ports.ConfirmStopResult, error) {
	corrID := generateCorrelationID()

	service.mu.Lock()

	if service.gate != session.StateTourActive || service.activeTour == nil {
		service.mu.Unlock()
		return ports.ConfirmStopResult{}, ErrNoActiveTour
	}
	t := service.activeTour
	ctx = service.logger.WithRequestID(service.logger.WithTourID(ctx, t.ID), corrID)

	if !t.Active() {
		service.mu.Unlock()
		return ports.ConfirmStopResult{}, fmt.Errorf("%w: tour is %s", ErrTourNotStarted, t.Status)
	}

	var target *stop.Stop
	for _, s := range service.stops {
		if s.ClientID == clientID {
			target = s
			break
		}
	}
	if target == nil {
		service.mu.Unlock()
		return ports.ConfirmStopResult{}, fmt.Errorf("%w: %s", ErrStopNotFound, clientID)
	}

	if target.Confirmed() {
		service.mu.Unlock()
		service.logger.Debug(ctx, "confirm_absorbed", "Stop already completed; no-op", map[string]any{"client_id": clientID})
		return ports.ConfirmStopResult{
			ClientID:     clientID,
			Status:       stop.ConfirmationCompleted.String(),
			Deduplicated: true,
			Message:      "Stop already confirmed",
		}, nil
	}

	service.flightMu.Lock()
	if _, running := service.inflight[clientID]; running {
		service.flightMu.Unlock()
		displayed := target.Displayed()
		service.mu.Unlock()
		service.logger.Debug(ctx, "confirm_absorbed", "Confirmation already in flight; no-op", map[string]any{"client_id": clientID})
		return ports.ConfirmStopResult{
			ClientID:     clientID,
			Status:       displayed.String(),
			Deduplicated: true,
			Message:      "Confirmation already in progress",
		}, nil
	}
	service.inflight[clientID] = struct{}{}
	service.flightMu.Unlock()

	defer func() {
		service.flightMu.Lock()
		delete(service.inflight, clientID)
		service.flightMu.Unlock()
	}()

	if err := target.BeginConfirm(); err != nil {
		service.mu.Unlock()
		return ports.ConfirmStopResult{}, fmt.Errorf("%w: %v", ErrTransition, err)
	}

	tourID := t.ID
	rollback := service.cfg.Ledger.RollbackOnFailure
	service.mu.Unlock()

	err := service.store.RecordCollection(ctx, ports.ConfirmationRecord{
		TourID:     tourID,
		ClientID:   clientID,
		Status:     stop.ConfirmationCompleted,
		RecordedAt: time.Now().UTC(),
	})

	if err == nil {
		// the mirror is advisory and follows the durable write; a dropped
		// frame costs a dashboard one update, the store stays authoritative
		service.channel.Emit(contracts.EventUpdateCollectionStatus, contracts.CollectionPayload{
			TourID:   tourID,
			ClientID: clientID,
			Status:   stop.ConfirmationCompleted.String(),
		})
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	// teardown may have raced the write (logout, team change, finish);
	// the released ledger must not be touched, the durable record stands
	if service.activeTour == nil || service.activeTour.ID != tourID {
		service.logger.Debug(ctx, "confirm_detached", "Tour released during the confirmation write; ledger untouched", map[string]any{"client_id": clientID})
		if err != nil {
			return ports.ConfirmStopResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return ports.ConfirmStopResult{
			ClientID: clientID,
			Status:   stop.ConfirmationCompleted.String(),
			Message:  "Collection recorded",
		}, nil
	}

	if err != nil {
		service.logger.Error(ctx, "collection_write_failed", "Durable collection write failed", err, map[string]any{
			"client_id": clientID,
			"rollback":  rollback,
		})

		if rollback {
			if rbErr := target.ResetConfirm(); rbErr != nil {
				service.logger.Error(ctx, "collection_rollback_failed", "Failed to roll back optimistic confirmation", rbErr, map[string]any{"client_id": clientID})
			}
			return ports.ConfirmStopResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		// keep-optimistic policy: the crew moves on, the store catches up later
		if resErr := target.CompleteConfirm(); resErr != nil {
			service.logger.Error(ctx, "collection_resolve_failed", "Failed to resolve optimistic confirmation", resErr, map[string]any{"client_id": clientID})
		}
		return ports.ConfirmStopResult{
			ClientID: clientID,
			Status:   target.Displayed().String(),
			Message:  "Collection saved locally; store update pending",
		}, nil
	}

	if err := target.CompleteConfirm(); err != nil {
		return ports.ConfirmStopResult{}, fmt.Errorf("%w: %v", ErrTransition, err)
	}

	service.logger.Info(ctx, "collection_confirmed", "Stop collection recorded", map[string]any{
		"client_id":  clientID,
		"request_id": corrID,
	})

	return ports.ConfirmStopResult{
		ClientID: clientID,
		Status:   target.Confirmation.String(),
		Message:  "Collection recorded",
	}, nil
}
