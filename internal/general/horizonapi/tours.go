package horizonapi

import (
	"context"
	"fmt"
	"net/http"

	"horizon-field/internal/domain/tour"
)

type tourTeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tourVehicleRef struct {
	Name string `json:"name"`
}

// tourWire accepts both historical shapes of the tours payload: a nested
// team object or a flat team_id. The mapping below normalizes them; a tour
// carrying neither is rejected as malformed rather than silently unowned.
type tourWire struct {
	ID      string          `json:"id" validate:"required"`
	Name    string          `json:"name" validate:"required"`
	Date    string          `json:"tour_date" validate:"required"`
	Status  string          `json:"status" validate:"required"`
	Team    *tourTeamRef    `json:"team"`
	TeamID  string          `json:"team_id"`
	Vehicle *tourVehicleRef `json:"vehicle"`
}

func (c *Client) mapTour(wire *tourWire) (*tour.Tour, error) {
	if err := c.check(wire); err != nil {
		return nil, err
	}

	status, err := tour.ParseStatus(wire.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: tour %s: %v", ErrMalformedResponse, wire.ID, err)
	}

	teamID := wire.TeamID
	teamName := ""
	if wire.Team != nil {
		teamID = wire.Team.ID
		teamName = wire.Team.Name
	}
	if teamID == "" {
		return nil, fmt.Errorf("%w: tour %s carries no team reference", ErrMalformedResponse, wire.ID)
	}

	t, err := tour.NewTour(wire.ID, wire.Name, wire.Date, status, teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	t.TeamName = teamName
	if wire.Vehicle != nil {
		t.Vehicle = wire.Vehicle.Name
	}
	return t, nil
}

// FetchTours lists all tours known to the store. Callers filter by team
// and status; the store endpoint is unfiltered.
func (c *Client) FetchTours(ctx context.Context) ([]*tour.Tour, error) {
	var wires []tourWire
	if err := c.do(ctx, http.MethodGet, "/tours", nil, &wires); err != nil {
		return nil, fmt.Errorf("fetch tours: %w", err)
	}

	tours := make([]*tour.Tour, 0, len(wires))
	for i := range wires {
		t, err := c.mapTour(&wires[i])
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, nil
}

type patchTourRequest struct {
	Status string `json:"status"`
}

// UpdateTourStatus issues the lifecycle transition PATCH. The store is
// idempotent per target status.
func (c *Client) UpdateTourStatus(ctx context.Context, tourID string, status tour.Status) error {
	if err := c.do(ctx, http.MethodPatch, "/tours/"+tourID, patchTourRequest{Status: status.String()}, nil); err != nil {
		return fmt.Errorf("update tour status: %w", err)
	}
	return nil
}
