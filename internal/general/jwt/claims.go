package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the canonical claims payload of a crew session token.
type Claims struct {
	TeamID string `json:"team_id,omitempty"` // selected team, when known at issue time
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewAgentClaims constructs claims for a field crew session.
func NewAgentClaims(subject, teamID string, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		TeamID: teamID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
