package jwt

import (
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("secret-key", time.Hour)

	signed, issued, err := m.IssueAgentToken("crew-7", "team-1")
	if err != nil {
		t.Fatalf("IssueAgentToken: %v", err)
	}
	if issued.TeamID != "team-1" {
		t.Fatalf("issued team = %q", issued.TeamID)
	}

	claims, err := m.ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "crew-7" || claims.TeamID != "team-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signed, _, err := NewManager("secret-a", time.Hour).IssueAgentToken("crew-7", "team-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager("secret-b", time.Hour).ParseAndValidate(signed); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	signed, _, err := NewManager("secret-key", -time.Minute).IssueAgentToken("crew-7", "team-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager("secret-key", time.Hour).ParseAndValidate(signed); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestValidateRejectsEmpty(t *testing.T) {
	if _, err := NewManager("secret-key", time.Hour).ParseAndValidate("  "); err != ErrEmptyToken {
		t.Fatalf("got %v, want ErrEmptyToken", err)
	}
}

func TestPeekExpiryWithoutSecret(t *testing.T) {
	signed, issued, err := NewManager("secret-key", time.Hour).IssueAgentToken("crew-7", "team-1")
	if err != nil {
		t.Fatal(err)
	}

	exp, err := PeekExpiry(signed)
	if err != nil {
		t.Fatalf("PeekExpiry: %v", err)
	}
	if !exp.Equal(issued.ExpiresAt.Time) {
		t.Fatalf("exp = %s, want %s", exp, issued.ExpiresAt.Time)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now().UTC()

	live, _, err := NewManager("secret-key", time.Hour).IssueAgentToken("crew-7", "team-1")
	if err != nil {
		t.Fatal(err)
	}
	lapsed, _, err := NewManager("secret-key", -time.Minute).IssueAgentToken("crew-7", "team-1")
	if err != nil {
		t.Fatal(err)
	}

	if Expired(live, now) {
		t.Error("live token reported expired")
	}
	if !Expired(lapsed, now) {
		t.Error("lapsed token reported live")
	}
	if Expired("opaque-session-token", now) {
		t.Error("opaque tokens carry no exp claim and never lapse locally")
	}
}
