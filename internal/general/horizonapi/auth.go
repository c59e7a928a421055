package horizonapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"horizon-field/internal/ports"
)

type loginRequest struct {
	TeamName string `json:"team_name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Authenticate exchanges crew credentials for a session token.
func (c *Client) Authenticate(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	var wire loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{
		TeamName: in.TeamName,
		Password: in.Password,
	}, &wire)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if err := c.check(&wire); err != nil {
		return ports.LoginResult{}, err
	}

	out := ports.LoginResult{Token: wire.Token}
	if wire.ExpiresAt != nil {
		out.ExpiresAt = wire.ExpiresAt.UTC()
	}
	return out, nil
}
