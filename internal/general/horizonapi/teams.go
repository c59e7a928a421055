package horizonapi

import (
	"context"
	"fmt"
	"net/http"

	"horizon-field/internal/domain/team"
)

type teamWire struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	MembersInfo string `json:"members_info"`
	Status      string `json:"status"`
}

// FetchTeams lists all teams known to the store.
func (c *Client) FetchTeams(ctx context.Context) ([]*team.Team, error) {
	var wires []teamWire
	if err := c.do(ctx, http.MethodGet, "/teams", nil, &wires); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	teams := make([]*team.Team, 0, len(wires))
	for i := range wires {
		if err := c.check(&wires[i]); err != nil {
			return nil, err
		}
		t, err := team.NewTeam(wires[i].ID, wires[i].Name, wires[i].MembersInfo, wires[i].Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}
