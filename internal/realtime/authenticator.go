package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// TokenVerifier checks a signed access token and returns its claims.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// IdentityLookup resolves a user by ID. It must return an error satisfying
// store.IsNotFoundError when the user does not exist.
type IdentityLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Identity is the authenticated owner of a session.
type Identity struct {
	UserID   int64
	Username string
	Role     domain.Role
}

// Authenticator decides whether a presented token may open a session.
// Only privileged users are admitted.
type Authenticator struct {
	tokens TokenVerifier
	users  IdentityLookup
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens TokenVerifier, users IdentityLookup, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
		logger: logger.With("component", "realtime_authenticator"),
	}
}

// Authenticate validates token and returns the session identity. Checks run
// in a fixed order: presence, signature and expiry, required claims, token
// role, then the user's existence and current role in the store.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims, err := a.tokens.ValidateToken(ctx, token)
	if err != nil {
		mapped := mapTokenError(err)
		a.logger.DebugContext(ctx, "realtime token rejected", "error", err)
		return Identity{}, mapped
	}
	if claims.UserID == 0 || claims.Username == "" || claims.Role == "" {
		return Identity{}, ErrMissingClaims
	}
	if !claims.Role.IsPrivileged() {
		a.logger.InfoContext(ctx, "realtime access denied for non-privileged role",
			"user_id", claims.UserID,
			"user_role", claims.Role)
		return Identity{}, ErrNotPrivileged
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return Identity{}, ErrUnknownIdentity
		}
		a.logger.ErrorContext(ctx, "failed to look up realtime user", "user_id", claims.UserID, "error", err)
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityLookup, err)
	}
	// A user demoted after the token was issued loses access immediately.
	if !user.Role.IsPrivileged() {
		return Identity{}, ErrNotPrivileged
	}

	return Identity{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return ErrMissingToken
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrExpiredToken
	case errors.Is(err, auth.ErrMissingClaims):
		return ErrMissingClaims
	default:
		return ErrInvalidToken
	}
}
