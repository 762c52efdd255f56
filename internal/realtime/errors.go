package realtime

import (
	"errors"
	"fmt"
)

// Handshake rejection reasons. Each maps to ClosePolicyViolation except
// ErrIdentityLookup, which is a server-side failure.
var (
	ErrMissingToken    = errors.New("authentication token required. Use ?token=<jwt_token> query parameter")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrExpiredToken    = fmt.Errorf("%w: token expired", ErrInvalidToken)
	ErrMissingClaims   = errors.New("invalid token payload")
	ErrUnknownIdentity = errors.New("user not found")
	ErrNotPrivileged   = errors.New("websocket access restricted to admin users only")
	ErrIdentityLookup  = errors.New("unable to verify user")
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotAccepted     = errors.New("transport not accepted")
	ErrTransportClosed = errors.New("transport closed")
	ErrWelcomeFailed   = errors.New("failed to deliver welcome message")
	ErrMalformedFrame  = errors.New("invalid JSON format")
)

// RejectionCode returns the close code used when a handshake fails with err.
func RejectionCode(err error) CloseCode {
	if errors.Is(err, ErrIdentityLookup) {
		return CloseInternalError
	}
	return ClosePolicyViolation
}

// RejectionMessage returns the client-facing text for a handshake failure.
func RejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "Authentication token required. Use ?token=<jwt_token> query parameter"
	case errors.Is(err, ErrMissingClaims):
		return "Authentication failed: Invalid token payload"
	case errors.Is(err, ErrNotPrivileged):
		return "Authentication failed: WebSocket access restricted to admin users only"
	case errors.Is(err, ErrUnknownIdentity):
		return "Authentication failed: User not found"
	case errors.Is(err, ErrIdentityLookup):
		return "Authentication failed: unable to verify user"
	default:
		return "Authentication failed: Invalid or expired token"
	}
}
