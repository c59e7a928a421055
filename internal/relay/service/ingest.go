package service

import (
	"context"
	"encoding/json"
	"time"

	"horizon-field/internal/general/contracts"
	"horizon-field/internal/ports"
)

// HandlePosition archives and rebroadcasts a position sample. Best-effort:
// an archive or broadcast failure is logged and the sample is dropped; the
// sending agent never hears about it.
func (service *relayService) HandlePosition(ctx context.Context, teamID, tourID string, lat, lng float64) {
	ctx = service.logger.WithTourID(ctx, tourID)
	now := time.Now().UTC()

	if err := service.archive.ArchivePosition(ctx, ports.PositionRecord{
		TourID:     tourID,
		TeamID:     teamID,
		Latitude:   lat,
		Longitude:  lng,
		ReceivedAt: now,
	}); err != nil {
		service.logger.Error(ctx, "position_archive_failed", "Failed to archive position sample", err, map[string]any{
			"team_id": teamID,
		})
	}

	service.broadcast(ctx, "position_broadcast_failed", contracts.PositionBroadcast{
		TourID:    tourID,
		TeamID:    teamID,
		Lat:       lat,
		Lng:       lng,
		Timestamp: now,
		Envelope:  contracts.Envelope{Producer: "telemetry-relay", SentAt: now},
	})
}

// HandleCollection archives and rebroadcasts a collection mirror event.
// The durable collection record lives in the store of record; this event
// only keeps live dashboards current.
func (service *relayService) HandleCollection(ctx context.Context, teamID, tourID, clientID, status string) {
	ctx = service.logger.WithTourID(ctx, tourID)
	now := time.Now().UTC()

	if err := service.archive.ArchiveCollectionEvent(ctx, ports.CollectionEventRecord{
		TourID:     tourID,
		TeamID:     teamID,
		ClientID:   clientID,
		Status:     status,
		ReceivedAt: now,
	}); err != nil {
		service.logger.Error(ctx, "collection_archive_failed", "Failed to archive collection event", err, map[string]any{
			"team_id":   teamID,
			"client_id": clientID,
		})
	}

	service.broadcast(ctx, "collection_broadcast_failed", contracts.CollectionBroadcast{
		TourID:    tourID,
		TeamID:    teamID,
		ClientID:  clientID,
		Status:    status,
		Timestamp: now,
		Envelope:  contracts.Envelope{Producer: "telemetry-relay", SentAt: now},
	})
}

// broadcast publishes one message on the telemetry fanout exchange.
// Fanout ignores routing keys; pass an empty routing key.
func (service *relayService) broadcast(ctx context.Context, failAction string, msg any) {
	body, err := json.Marshal(msg)
	if err != nil {
		service.logger.Error(ctx, failAction, "Failed to encode broadcast message", err, nil)
		return
	}
	if err := service.pub.Publish(contracts.ExchangeTelemetryFanout, "", body); err != nil {
		service.logger.Error(ctx, failAction, "Failed to publish broadcast message", err, nil)
	}
}
