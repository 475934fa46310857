package domain

import "time"

// Role identifies what an operator token may do
type Role string

const (
	// RoleAdmin may ingest, delete and retrieve
	RoleAdmin Role = "admin"
	// RoleReader may only retrieve
	RoleReader Role = "reader"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleReader
}

// TokenClaims are the claims carried by an operator token
type TokenClaims struct {
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// NewTokenClaims creates claims valid for ttl from now
func NewTokenClaims(subject string, role Role, ttl time.Duration) *TokenClaims {
	now := time.Now()
	return &TokenClaims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

// IsExpired reports whether the claims have expired
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}

// CanIngest reports whether the holder may modify the knowledge base
func (c *TokenClaims) CanIngest() bool {
	return c.Role == RoleAdmin
}
