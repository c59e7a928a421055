package postgres

import (
	"context"
	"fmt"

	"horizon-field/internal/ports"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure TelemetryRepo implements the ports.TelemetryArchive interface.
var _ ports.TelemetryArchive = (*TelemetryRepo)(nil)

// TelemetryRepo archives relay telemetry using pgx and plain SQL.
// Rows are append-only; dashboards query them by tour and time window.
type TelemetryRepo struct {
	pool *pgxpool.Pool
}

// NewTelemetryRepo constructs a TelemetryRepo on the given pool.
func NewTelemetryRepo(pool *pgxpool.Pool) *TelemetryRepo {
	return &TelemetryRepo{pool: pool}
}

// ArchivePosition inserts a single position_history record.
func (repo *TelemetryRepo) ArchivePosition(ctx context.Context, rec ports.PositionRecord) error {
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO position_history (
			tour_id, team_id, latitude, longitude, received_at
		)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`,
		rec.TourID,
		rec.TeamID,
		rec.Latitude,
		rec.Longitude,
		nullableTime(rec.ReceivedAt),
	)
	if err != nil {
		return fmt.Errorf("archive position: %w", err)
	}
	return nil
}

// ArchiveCollectionEvent inserts a single collection_events record.
func (repo *TelemetryRepo) ArchiveCollectionEvent(ctx context.Context, rec ports.CollectionEventRecord) error {
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO collection_events (
			tour_id, team_id, client_id, status, received_at
		)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`,
		rec.TourID,
		rec.TeamID,
		rec.ClientID,
		rec.Status,
		nullableTime(rec.ReceivedAt),
	)
	if err != nil {
		return fmt.Errorf("archive collection event: %w", err)
	}
	return nil
}
