package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const defaultListLimit = 100

// currentUser returns the authenticated user, writing a 401 when the request
// did not pass through the authentication middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := shared.UserFromContext(r.Context())
	if !ok {
		logger.FromContext(r.Context()).Warn("user not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

// getPathID parses a positive integer path parameter.
func getPathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, param)
	}
	return id, nil
}

// handleUserAndPathID extracts both the user and the {id} path parameter,
// writing an error response if either is missing or invalid.
func handleUserAndPathID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*domain.User, int64, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, 0, false
	}
	id, err := getPathID(r, "id")
	if err != nil {
		log.Debug("invalid path parameter", slog.String("value", chi.URLParam(r, "id")))
		HandleAPIError(w, r, err, "")
		return nil, 0, false
	}
	return user, id, true
}

// parsePagination reads skip and limit from the query string. Out-of-range
// values are left for the service to reject.
func parsePagination(r *http.Request) (skip, limit int, err error) {
	q := r.URL.Query()
	limit = defaultListLimit
	if v := q.Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: skip must be an integer", domain.ErrValidation)
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer", domain.ErrValidation)
		}
	}
	if limit > store.MaxListLimit {
		return 0, 0, fmt.Errorf("%w: limit must be at most %d", domain.ErrValidation, store.MaxListLimit)
	}
	return skip, limit, nil
}
