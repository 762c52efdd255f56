package auth

import (
	"context"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// JWTService issues and validates signed access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token carrying the user's
	// username (sub), numeric ID and role.
	GenerateToken(ctx context.Context, user *domain.User) (string, error)

	// ValidateToken verifies the signature and time claims of tokenString
	// and returns its claims. The error is one of ErrInvalidToken,
	// ErrExpiredToken, ErrTokenNotYetValid or ErrMissingClaims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	UserID    int64
	Username  string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
