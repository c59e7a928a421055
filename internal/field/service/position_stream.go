package service

import (
	"context"
	"errors"
	"time"

	"horizon-field/internal/domain/geo"
	"horizon-field/internal/general/contracts"
	"horizon-field/internal/ports"
)

// streamState is the position stream bookkeeping inside fieldService.
type streamState struct {
	active bool
	cancel context.CancelFunc
}

// throttle decides which raw fixes get forwarded. A fix passes when enough
// time elapsed or enough distance accrued since the last forwarded fix;
// the first fix always passes. Everything else is dropped, not queued.
type throttle struct {
	minInterval time.Duration
	minDistance float64

	lastAt  time.Time
	lastLat float64
	lastLng float64
}

func (th *throttle) admit(sample geo.PositionSample, now time.Time) bool {
	if th.lastAt.IsZero() {
		th.mark(sample, now)
		return true
	}
	if now.Sub(th.lastAt) >= th.minInterval {
		th.mark(sample, now)
		return true
	}
	if geo.DistanceMeters(th.lastLat, th.lastLng, sample.Latitude, sample.Longitude) >= th.minDistance {
		th.mark(sample, now)
		return true
	}
	return false
}

func (th *throttle) mark(sample geo.PositionSample, now time.Time) {
	th.lastAt = now
	th.lastLat = sample.Latitude
	th.lastLng = sample.Longitude
}

// activateStreamLocked starts the position stream for the active tour.
// A refused location permission is non-fatal: tracking stays off and the
// tour runs untracked. Caller holds mu.
func (service *fieldService) activateStreamLocked(ctx context.Context) {
	if service.stream.active || service.activeTour == nil {
		return
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	fixes, err := service.provider.Watch(streamCtx)
	if err != nil {
		cancel()
		if errors.Is(err, ports.ErrPermissionDenied) {
			service.logger.Info(ctx, "tracking_unavailable", "Location permission denied; tour runs untracked", nil)
			return
		}
		service.logger.Error(ctx, "tracking_start_failed", "Failed to start position stream", err, nil)
		return
	}

	service.stream.active = true
	service.stream.cancel = cancel

	tourID := service.activeTour.ID
	th := &throttle{
		minInterval: service.cfg.TrackingMinInterval(),
		minDistance: service.cfg.Tracking.MinDistanceMeters,
	}

	go service.pumpPositions(streamCtx, tourID, fixes, th)

	service.logger.Info(ctx, "tracking_started", "Position stream active", map[string]any{
		"min_interval": th.minInterval.String(),
		"min_distance": th.minDistance,
	})
}

// deactivateStreamLocked stops the position stream. Idempotent. Caller holds mu.
func (service *fieldService) deactivateStreamLocked(ctx context.Context) {
	if !service.stream.active {
		return
	}
	if service.stream.cancel != nil {
		service.stream.cancel()
		service.stream.cancel = nil
	}
	service.stream.active = false
	service.logger.Info(ctx, "tracking_stopped", "Position stream stopped", nil)
}

// pumpPositions consumes raw fixes until the stream is torn down. Admitted
// fixes are stamped with the tour and emitted on the transport channel;
// emission stops the moment the tour leaves IN_PROGRESS.
func (service *fieldService) pumpPositions(ctx context.Context, tourID string, fixes <-chan geo.PositionSample, th *throttle) {
	logCtx := service.logger.WithTourID(context.WithoutCancel(ctx), tourID)

	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-fixes:
			if !ok {
				service.logger.Info(logCtx, "tracking_source_closed", "Location source closed the fix stream", nil)
				service.mu.Lock()
				service.deactivateStreamLocked(logCtx)
				service.mu.Unlock()
				return
			}

			if sample.Validate() != nil {
				continue
			}
			if !th.admit(sample, time.Now()) {
				continue
			}

			service.mu.Lock()
			emit := service.activeTour != nil && service.activeTour.ID == tourID && service.activeTour.Active()
			service.mu.Unlock()
			if !emit {
				continue
			}

			service.channel.Emit(contracts.EventSendPosition, contracts.PositionPayload{
				TourID: tourID,
				Lat:    sample.Latitude,
				Lng:    sample.Longitude,
			})
		}
	}
}
