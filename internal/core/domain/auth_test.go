package domain

import (
	"testing"
	"time"
)

func TestRoleIsValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleReader, true},
		{Role(""), false},
		{Role("owner"), false},
	}

	for _, tt := range tests {
		if got := tt.role.IsValid(); got != tt.want {
			t.Errorf("Role(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestNewTokenClaims(t *testing.T) {
	claims := NewTokenClaims("ops", RoleAdmin, time.Hour)

	if claims.Subject != "ops" {
		t.Errorf("expected subject ops, got %q", claims.Subject)
	}
	if claims.ExpiresAt-claims.IssuedAt != int64(time.Hour/time.Second) {
		t.Errorf("expected a one hour lifetime, got %ds", claims.ExpiresAt-claims.IssuedAt)
	}
	if claims.IsExpired() {
		t.Error("fresh claims should not be expired")
	}
}

func TestTokenClaimsIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{"expired", time.Now().Add(-time.Hour), true},
		{"valid", time.Now().Add(time.Hour), false},
		{"just expired", time.Now().Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &TokenClaims{ExpiresAt: tt.expiresAt.Unix()}
			if claims.IsExpired() != tt.expected {
				t.Errorf("expected IsExpired() = %v", tt.expected)
			}
		})
	}
}

func TestTokenClaimsCanIngest(t *testing.T) {
	if !(&TokenClaims{Role: RoleAdmin}).CanIngest() {
		t.Error("admin should be able to ingest")
	}
	if (&TokenClaims{Role: RoleReader}).CanIngest() {
		t.Error("reader should not be able to ingest")
	}
}
