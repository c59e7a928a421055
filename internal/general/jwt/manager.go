package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningAlgo = errors.New("unexpected signing method")
	ErrEmptyToken         = errors.New("bearer token missing")
)

// Manager handles JWT creation and validation on the relay side, where the
// signing secret is shared with the store of record that mints the tokens.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewManager creates a token manager.
func NewManager(secret string, accessTTL time.Duration) *Manager {
	s := strings.TrimSpace(secret)
	if s == "" {
		panic("jwt: empty secret key")
	}

	return &Manager{
		secret:    []byte(s),
		accessTTL: accessTTL,
	}
}

// IssueAgentToken returns a signed access token for a crew session.
func (m *Manager) IssueAgentToken(subject, teamID string) (string, *Claims, error) {
	claims := NewAgentClaims(subject, teamID, m.accessTTL)
	tkn := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(m.secret)

	return signed, claims, err
}

// ParseAndValidate verifies signature and standard claims.
func (m *Manager) ParseAndValidate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrEmptyToken
	}

	parser := jwtlib.NewParser(jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwtlib.Token) (any, error) {
		if t.Method != jwtlib.SigningMethodHS256 {
			return nil, ErrInvalidSigningAlgo
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// PeekExpiry reads the expiry of a token WITHOUT verifying the signature.
// The agent does not hold the signing secret; it only needs the exp claim
// to force a logout proactively when the session token lapsed.
func PeekExpiry(tokenString string) (time.Time, error) {
	if strings.TrimSpace(tokenString) == "" {
		return time.Time{}, ErrEmptyToken
	}

	claims := &Claims{}
	parser := jwtlib.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil // tokens without exp never lapse locally
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token's exp claim is in the past. Opaque or
// unparseable tokens never expire locally: without a readable exp claim the
// agent has no evidence, and the store answers 401 when it disagrees.
func Expired(tokenString string, now time.Time) bool {
	exp, err := PeekExpiry(tokenString)
	if err != nil || exp.IsZero() {
		return false
	}
	return now.After(exp)
}
