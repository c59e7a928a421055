package horizonapi

import (
	"context"
	"fmt"
	"net/http"

	"horizon-field/internal/domain/stop"
)

type stopLocationWire struct {
	Coordinates []float64 `json:"coordinates"` // [lat, lng]
}

type stopClientWire struct {
	ID            string            `json:"id" validate:"required"`
	Name          string            `json:"name" validate:"required"`
	StreetAddress string            `json:"street_address"`
	Location      *stopLocationWire `json:"location"`
}

type stopWire struct {
	ID       string         `json:"id"`
	ClientID string         `json:"clientId" validate:"required"`
	Sequence int            `json:"sequence"`
	Client   stopClientWire `json:"client"`
}

// FetchStops loads the ordered stop sequence of a tour. The order is fixed
// at load time; a missing sequence field falls back to list position.
func (c *Client) FetchStops(ctx context.Context, tourID string) ([]*stop.Stop, error) {
	var wires []stopWire
	if err := c.do(ctx, http.MethodGet, "/tour-clients/tour/"+tourID, nil, &wires); err != nil {
		return nil, fmt.Errorf("fetch stops: %w", err)
	}

	stops := make([]*stop.Stop, 0, len(wires))
	for i := range wires {
		w := &wires[i]
		if err := c.check(w); err != nil {
			return nil, err
		}

		seq := w.Sequence
		if seq == 0 {
			seq = i + 1
		}

		s, err := stop.NewStop(w.ID, w.ClientID, seq, w.Client.Name, w.Client.StreetAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		if loc := w.Client.Location; loc != nil {
			if len(loc.Coordinates) != 2 {
				return nil, fmt.Errorf("%w: stop %s location needs [lat, lng]", ErrMalformedResponse, w.ClientID)
			}
			lat, lng := loc.Coordinates[0], loc.Coordinates[1]
			s.Latitude = &lat
			s.Longitude = &lng
		}

		stops = append(stops, s)
	}
	return stops, nil
}
