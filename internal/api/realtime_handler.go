package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/realtime"
)

// SessionAdmin is the part of the session registry exposed to administrators.
type SessionAdmin interface {
	Stats() realtime.Stats
	Sessions() []realtime.SessionInfo
	BroadcastToAll(ctx context.Context, msg realtime.Message) int
	Disconnect(ctx context.Context, id realtime.SessionID) error
}

// RealtimeHandler serves the administrative realtime endpoints. Routes must
// be wrapped with RequireAdmin.
type RealtimeHandler struct {
	sessions SessionAdmin
	logger   *slog.Logger
}

// NewRealtimeHandler creates a RealtimeHandler.
func NewRealtimeHandler(sessions SessionAdmin, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "realtime_admin_handler")),
	}
}

// Stats handles GET /api/ws/stats.
func (h *RealtimeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.sessions.Stats())
}

// Connections handles GET /api/ws/connections.
func (h *RealtimeHandler) Connections(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.sessions.Sessions())
}

// Broadcast handles POST /api/ws/broadcast.
func (h *RealtimeHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req BroadcastRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	n := h.sessions.BroadcastToAll(r.Context(), realtime.NewSystemBroadcast(req.Message, user.Username))
	log.Info("system broadcast sent", "recipients", n)

	shared.RespondWithJSON(w, r, http.StatusOK, BroadcastResponse{
		SuccessResponse: SuccessResponse{Success: true, Message: "Message broadcast to all connections"},
		Recipients:      n,
	})
}

// Disconnect handles DELETE /api/ws/connections/{id}.
func (h *RealtimeHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	id := realtime.SessionID(chi.URLParam(r, "id"))

	if err := h.sessions.Disconnect(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to disconnect session")
		return
	}
	log.Info("session disconnected by administrator", "connection_id", id)

	shared.RespondWithJSON(w, r, http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("Connection %s disconnected", id),
	})
}
