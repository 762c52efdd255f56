package realtime

import (
	"log/slog"
	"net/http"
)

// EchoHandler serves an unauthenticated websocket that replies to every
// frame with "Echo: " and the frame's text. It is kept for connectivity
// checks and is never registered with a Registry.
func EchoHandler(cfg TransportConfig, logger *slog.Logger) http.Handler {
	upgrader := NewUpgrader(cfg)
	logger = logger.With("component", "realtime_echo")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn := NewWebSocketConn(w, r, upgrader, cfg)
		ctx := r.Context()
		if err := conn.Accept(ctx); err != nil {
			logger.DebugContext(ctx, "echo upgrade failed", "error", err)
			return
		}
		defer func() { _ = conn.Close(CloseNormal, "") }()

		for {
			data, err := conn.Receive(ctx)
			if err != nil {
				return
			}
			if err := conn.Send(ctx, append([]byte("Echo: "), data...)); err != nil {
				logger.DebugContext(ctx, "echo write failed", "error", err)
				return
			}
		}
	})
}
