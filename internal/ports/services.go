package ports

import (
	"context"
	"time"
)

// ----- DTOs for the Field Agent -----

// TeamView is a team row shown on the selection screen.
type TeamView struct {
	TeamID  string `json:"team_id"`
	Name    string `json:"name"`
	Members string `json:"members_info,omitempty"`
}

// TourView is a tour row shown on the tour list.
type TourView struct {
	TourID  string `json:"tour_id"`
	Name    string `json:"name"`
	Date    string `json:"tour_date"`
	Status  string `json:"status"`
	Vehicle string `json:"vehicle,omitempty"`
}

// StopView is one stop of the active tour, in server-provided order.
type StopView struct {
	StopID     string   `json:"stop_id"`
	ClientID   string   `json:"client_id"`
	Sequence   int      `json:"sequence"`
	ClientName string   `json:"client_name"`
	Address    string   `json:"address"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Status     string   `json:"status"` // optimistic display status
}

// GateStatus reports the session gate and the execution bundle state.
type GateStatus struct {
	State      string    `json:"state"`
	TeamID     string    `json:"team_id,omitempty"`
	TeamName   string    `json:"team_name,omitempty"`
	ActiveTour *TourView `json:"active_tour,omitempty"`
	Tracking   bool      `json:"tracking"`
	Channel    string    `json:"channel"`
}

// TourDetail is returned when a tour is selected.
type TourDetail struct {
	Tour     TourView   `json:"tour"`
	Stops    []StopView `json:"stops"`
	Tracking bool       `json:"tracking"`
}

// StartTourResult matches the response for starting the active tour.
type StartTourResult struct {
	TourID    string    `json:"tour_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Tracking  bool      `json:"tracking"`
	Message   string    `json:"message"`
}

// FinishTourResult matches the response for finishing the active tour.
type FinishTourResult struct {
	TourID     string    `json:"tour_id"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
	Message    string    `json:"message"`
}

// ConfirmStopResult matches the response for confirming a stop collection.
// Deduplicated is true when the call was absorbed by the single-flight
// guard or the stop was already completed (both are silent no-ops).
type ConfirmStopResult struct {
	ClientID     string `json:"client_id"`
	Status       string `json:"status"`
	Deduplicated bool   `json:"deduplicated"`
	Message      string `json:"message,omitempty"`
}

// ----- Field Service Interface -----

// FieldService is the tour execution coordinator boundary consumed by the
// presentation shell over the local HTTP API.
type FieldService interface {
	Login(ctx context.Context, teamName, password string) (GateStatus, error)
	Logout(ctx context.Context) (GateStatus, error)
	SelectTeam(ctx context.Context, teamID string) (GateStatus, error)
	ChangeTeam(ctx context.Context) (GateStatus, error)
	ListTodayTeams(ctx context.Context) ([]TeamView, error)
	ListTours(ctx context.Context) ([]TourView, error)
	SelectTour(ctx context.Context, tourID string) (TourDetail, error)
	DeselectTour(ctx context.Context) (GateStatus, error)
	StartTour(ctx context.Context) (StartTourResult, error)
	FinishTour(ctx context.Context) (FinishTourResult, error)
	ListStops(ctx context.Context) ([]StopView, error)
	ConfirmStop(ctx context.Context, clientID string) (ConfirmStopResult, error)
	Status(ctx context.Context) GateStatus
}

// ----- Relay Service Interface -----

// RelayService ingests telemetry events received over agent WebSockets.
// Both handlers are best-effort: failures are logged, never propagated back
// to the sending agent.
type RelayService interface {
	HandlePosition(ctx context.Context, teamID, tourID string, lat, lng float64)
	HandleCollection(ctx context.Context, teamID, tourID, clientID, status string)
}
