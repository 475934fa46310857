package driven

import "github.com/custodia-labs/lexis-core/internal/core/domain"

// TokenAdapter signs and verifies operator tokens for the admin API
type TokenAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
