package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Handler runs the per-connection protocol: authenticate, register, serve
// control messages, and unregister on every exit path.
type Handler struct {
	auth     *Authenticator
	registry *Registry
	upgrader *websocket.Upgrader
	cfg      TransportConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(auth *Authenticator, registry *Registry, cfg TransportConfig, logger *slog.Logger) *Handler {
	cfg = cfg.withDefaults()
	return &Handler{
		auth:     auth,
		registry: registry,
		upgrader: NewUpgrader(cfg),
		cfg:      cfg,
		logger:   logger.With("component", "realtime_handler"),
		now:      time.Now,
	}
}

// ServeHTTP upgrades the request. The token travels in the "token" query
// parameter because browsers cannot set headers on websocket requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn := NewWebSocketConn(w, r, h.upgrader, h.cfg)
	h.Serve(r.Context(), conn, r.URL.Query().Get("token"))
}

// Serve runs the protocol over conn until the peer goes away.
func (h *Handler) Serve(ctx context.Context, conn Conn, token string) {
	identity, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		h.reject(ctx, conn, err)
		return
	}

	id, err := h.registry.Register(ctx, conn, identity.UserID, identity.Role)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to register session", "user_id", identity.UserID, "error", err)
		_ = conn.Close(CloseInternalError, "registration failed")
		return
	}

	log := h.logger.With("connection_id", id, "user_id", identity.UserID)
	closeCode, closeReason := CloseNormal, ""
	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "session handler panicked",
				"panic", p,
				"stack", string(debug.Stack()))
			closeCode, closeReason = CloseInternalError, "internal error"
		}
		h.registry.Unregister(id)
		_ = conn.Close(closeCode, closeReason)
	}()

	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrTransportClosed) {
				log.DebugContext(ctx, "peer closed session")
			} else {
				log.WarnContext(ctx, "session receive failed", "error", err)
				closeCode, closeReason = CloseInternalError, "internal error"
			}
			return
		}
		h.dispatch(ctx, id, identity, data)
	}
}

func (h *Handler) reject(ctx context.Context, conn Conn, cause error) {
	code := RejectionCode(cause)
	h.logger.InfoContext(ctx, "realtime handshake rejected", "error", cause, "close_code", int(code))

	// The transport has to be accepted for the client to see the reason.
	if err := conn.Accept(ctx); err != nil {
		h.logger.DebugContext(ctx, "could not accept rejected transport", "error", err)
		return
	}
	if data, err := Encode(NewErrorMessage(RejectionMessage(cause), code), h.now()); err == nil {
		_ = conn.Send(ctx, data)
	}
	_ = conn.Close(code, "authentication failed")
}

func (h *Handler) dispatch(ctx context.Context, id SessionID, identity Identity, data []byte) {
	in, err := ParseClientMessage(data)
	if err != nil {
		h.registry.SendTo(ctx, id, NewErrorMessage("Invalid JSON format", CloseUnsupportedData))
		return
	}

	var reply Message
	switch in.Type {
	case TypePing:
		reply = &Pong{Envelope: Envelope{Type: TypePong}, Data: in.Data}
	case TypeStats:
		reply = h.statsReply(identity.Role)
	case TypeSubscribe:
		events := in.Events
		if events == nil {
			events = []string{}
		}
		reply = &SubscriptionAck{Envelope: Envelope{Type: TypeSubscriptionAck}, SubscribedTo: events}
	default:
		reply = NewErrorMessage(fmt.Sprintf("Unknown message type: %s", in.Type), CloseUnsupportedData)
	}
	h.registry.SendTo(ctx, id, reply)
}

func (h *Handler) statsReply(role domain.Role) Message {
	if !role.IsPrivileged() {
		return NewErrorMessage("Insufficient permissions for stats", ClosePolicyViolation)
	}
	return &StatsMessage{Envelope: Envelope{Type: TypeStats}, Data: h.registry.Stats()}
}
