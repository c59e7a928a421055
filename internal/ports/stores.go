package ports

import (
	"context"
	"time"

	"horizon-field/internal/domain/stop"
	"horizon-field/internal/domain/team"
	"horizon-field/internal/domain/tour"
)

// LoginInput carries the crew credentials sent to POST /auth/login.
type LoginInput struct {
	TeamName string
	Password string
}

// LoginResult is the session bootstrap returned by the remote store.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time // zero when the store does not report expiry
}

// ConfirmationRecord is the durable write for a collected stop.
// Idempotency key on the store side is (tour_id, client_id).
type ConfirmationRecord struct {
	TourID     string
	ClientID   string
	Status     stop.ConfirmationStatus
	RecordedAt time.Time
}

// TourStore is the remote store of record (REST). All correctness-relevant
// writes go through it; the transport channel is telemetry only.
type TourStore interface {
	Authenticate(ctx context.Context, in LoginInput) (LoginResult, error)
	FetchTeams(ctx context.Context) ([]*team.Team, error)
	FetchTours(ctx context.Context) ([]*tour.Tour, error)
	FetchStops(ctx context.Context, tourID string) ([]*stop.Stop, error)
	UpdateTourStatus(ctx context.Context, tourID string, status tour.Status) error
	RecordCollection(ctx context.Context, rec ConfirmationRecord) error
}

// PositionRecord is an archived position sample on the relay side.
type PositionRecord struct {
	TourID     string
	TeamID     string
	Latitude   float64
	Longitude  float64
	ReceivedAt time.Time
}

// CollectionEventRecord is an archived collection mirror event on the relay side.
type CollectionEventRecord struct {
	TourID     string
	TeamID     string
	ClientID   string
	Status     string
	ReceivedAt time.Time
}

// TelemetryArchive persists received telemetry for dashboard queries.
type TelemetryArchive interface {
	ArchivePosition(ctx context.Context, rec PositionRecord) error
	ArchiveCollectionEvent(ctx context.Context, rec CollectionEventRecord) error
}
