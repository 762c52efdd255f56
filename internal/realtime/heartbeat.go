package realtime

import (
	"context"
	"time"
)

// RunHeartbeat broadcasts a heartbeat to every session each interval until
// ctx is cancelled. A missed heartbeat never closes a session here; clients
// use it to detect half-open connections.
func (r *Registry) RunHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("heartbeat started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("heartbeat stopped")
			return
		case <-ticker.C:
			r.Heartbeat(ctx)
		}
	}
}

// Heartbeat sends one heartbeat frame to every session.
func (r *Registry) Heartbeat(ctx context.Context) int {
	active := r.Count()
	if active == 0 {
		return 0
	}
	return r.BroadcastToAll(ctx, NewHeartbeat(active))
}
