package quotes

import "errors"

// Failure classes for a quote fetch. Callers map them to HTTP statuses.
var (
	// ErrBadUpstream means the API answered but not with a usable quote.
	ErrBadUpstream = errors.New("quote API returned an invalid response")

	// ErrUnavailable means the API could not be reached or kept rate limiting.
	ErrUnavailable = errors.New("quote API is currently unavailable")

	// ErrTimeout means every attempt timed out.
	ErrTimeout = errors.New("quote API request timed out after multiple attempts")
)
