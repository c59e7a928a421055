package contracts

import "time"

// Exchanges
const (
	// ExchangeTelemetryFanout rebroadcasts everything the relay ingests.
	// Fanout ignores routing keys; dashboard consumers bind their own queues.
	ExchangeTelemetryFanout = "telemetry_fanout"
)

// PositionBroadcast is published by the relay for every archived position.
type PositionBroadcast struct {
	TourID    string    `json:"tour_id"`
	TeamID    string    `json:"team_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}

// CollectionBroadcast is published by the relay for every archived
// collection mirror event.
type CollectionBroadcast struct {
	TourID    string    `json:"tour_id"`
	TeamID    string    `json:"team_id"`
	ClientID  string    `json:"client_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
