package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token is malformed, unsigned, or signed with another key.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token's nbf or iat lies in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrMissingClaims indicates a validly signed token lacks the subject,
	// user ID, or role claim.
	ErrMissingClaims = errors.New("authentication token is missing required claims")

	// ErrInvalidCredentials is returned by login when the username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
