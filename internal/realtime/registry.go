package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// SessionID identifies one registered connection. IDs are never reused.
type SessionID string

type session struct {
	id          SessionID
	identity    int64
	role        domain.Role
	connectedAt time.Time
	transport   Transport
}

// SessionInfo is a read-only view of a registered session.
type SessionInfo struct {
	ConnectionID SessionID   `json:"connection_id"`
	UserID       int64       `json:"user_id"`
	UserRole     domain.Role `json:"user_role"`
	ConnectedAt  time.Time   `json:"connected_at"`
}

// Stats is a point-in-time aggregate of the registry.
type Stats struct {
	TotalSessions    int
	UniqueIdentities int
	CountsByRole     map[domain.Role]int
}

// MarshalJSON renders the stats in the shape clients expect.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalConnections int `json:"total_connections"`
		UniqueUsers      int `json:"unique_users"`
		AdminConnections int `json:"admin_connections"`
		UserConnections  int `json:"user_connections"`
	}{
		TotalConnections: s.TotalSessions,
		UniqueUsers:      s.UniqueIdentities,
		AdminConnections: s.CountsByRole[domain.RoleAdmin],
		UserConnections:  s.CountsByRole[domain.RoleUser],
	})
}

// Registry tracks live sessions. All table access goes through mu; frames
// are written outside the lock so a slow peer never blocks registration.
type Registry struct {
	mu         sync.Mutex
	sessions   map[SessionID]*session
	identities map[int64]int

	logger *slog.Logger
	now    func() time.Time
	newID  func() SessionID
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions:   make(map[SessionID]*session),
		identities: make(map[int64]int),
		logger:     logger.With("component", "session_registry"),
		now:        time.Now,
		newID:      func() SessionID { return SessionID(uuid.NewString()) },
	}
}

// Register accepts t, records a new session for identity and sends the
// welcome frame. If the welcome cannot be delivered the session is removed
// again and ErrWelcomeFailed is returned.
//
// The session is visible to broadcasts before the welcome is written, so a
// concurrent event frame may reach the client ahead of its connection frame.
func (r *Registry) Register(ctx context.Context, t Transport, identity int64, role domain.Role) (SessionID, error) {
	if err := t.Accept(ctx); err != nil {
		return "", fmt.Errorf("failed to accept transport: %w", err)
	}

	r.mu.Lock()
	id := r.newID()
	for _, taken := r.sessions[id]; taken; _, taken = r.sessions[id] {
		id = r.newID()
	}
	s := &session{
		id:          id,
		identity:    identity,
		role:        role,
		connectedAt: r.now().UTC(),
		transport:   t,
	}
	r.sessions[id] = s
	r.identities[identity]++
	total := len(r.sessions)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "session registered",
		"connection_id", id,
		"user_id", identity,
		"user_role", role,
		"total_sessions", total)

	welcome := &ConnectionMessage{
		Envelope:     Envelope{Type: TypeConnection},
		Message:      "Connected to task updates",
		ConnectionID: id,
		UserID:       identity,
		UserRole:     role,
	}
	data, err := Encode(welcome, r.now())
	if err == nil {
		err = t.Send(ctx, data)
	}
	if err != nil {
		r.Unregister(id)
		return "", fmt.Errorf("%w: %v", ErrWelcomeFailed, err)
	}
	return id, nil
}

// Unregister removes the session. It reports whether anything was removed;
// unknown or already-removed ids are a no-op.
func (r *Registry) Unregister(id SessionID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		r.identities[s.identity]--
		if r.identities[s.identity] <= 0 {
			delete(r.identities, s.identity)
		}
	}
	total := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.logger.Info("session unregistered",
			"connection_id", id,
			"user_id", s.identity,
			"total_sessions", total)
	}
	return ok
}

// SessionsForIdentity returns the ids of every session opened by identity.
func (r *Registry) SessionsForIdentity(identity int64) []SessionID {
	return r.collect(func(s *session) bool { return s.identity == identity })
}

// SessionsForRole returns the ids of every session with the given role.
func (r *Registry) SessionsForRole(role domain.Role) []SessionID {
	return r.collect(func(s *session) bool { return s.role == role })
}

// PrivilegedSessions returns the ids of every session whose role is privileged.
func (r *Registry) PrivilegedSessions() []SessionID {
	return r.collect(func(s *session) bool { return s.role.IsPrivileged() })
}

func (r *Registry) collect(match func(*session) bool) []SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []SessionID
	for id, s := range r.sessions {
		if match(s) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SendTo pushes msg to one session. A failed write evicts the session; the
// return value only reports whether the frame was written.
func (r *Registry) SendTo(ctx context.Context, id SessionID, msg Message) bool {
	return r.SendToSessions(ctx, []SessionID{id}, msg) == 1
}

// SendToSessions pushes msg to each listed session once, evicting any whose
// write fails, and returns how many writes succeeded. Duplicate and unknown
// ids are skipped.
func (r *Registry) SendToSessions(ctx context.Context, ids []SessionID, msg Message) int {
	r.mu.Lock()
	targets := make([]*session, 0, len(ids))
	seen := make(map[SessionID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s, ok := r.sessions[id]; ok {
			targets = append(targets, s)
		}
	}
	r.mu.Unlock()

	return r.deliver(ctx, targets, msg)
}

// BroadcastToAll pushes msg to every registered session.
func (r *Registry) BroadcastToAll(ctx context.Context, msg Message) int {
	return r.deliver(ctx, r.snapshot(func(*session) bool { return true }), msg)
}

// BroadcastToRole pushes msg to every session with the given role.
func (r *Registry) BroadcastToRole(ctx context.Context, role domain.Role, msg Message) int {
	return r.deliver(ctx, r.snapshot(func(s *session) bool { return s.role == role }), msg)
}

func (r *Registry) snapshot(match func(*session) bool) []*session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if match(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) deliver(ctx context.Context, targets []*session, msg Message) int {
	if len(targets) == 0 {
		return 0
	}
	data, err := Encode(msg, r.now())
	if err != nil {
		r.logger.ErrorContext(ctx, "dropping unencodable message", "error", err)
		return 0
	}

	delivered := 0
	for _, s := range targets {
		if err := s.transport.Send(ctx, data); err != nil {
			r.logger.WarnContext(ctx, "send failed, evicting session",
				"connection_id", s.id,
				"user_id", s.identity,
				"message_type", msg.envelope().Type,
				"error", err)
			r.evict(s)
			continue
		}
		delivered++
	}
	return delivered
}

// evict removes a session whose transport failed and releases the transport.
func (r *Registry) evict(s *session) {
	if r.Unregister(s.id) {
		_ = s.transport.Close(CloseGoingAway, "")
	}
}

// Disconnect forcibly ends a session: a best-effort notice, then the close
// frame, then removal from the registry.
func (r *Registry) Disconnect(ctx context.Context, id SessionID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	notice := &ForcedDisconnect{
		Envelope: Envelope{Type: TypeForcedDisconnect},
		Message:  "Connection terminated by administrator",
	}
	if data, err := Encode(notice, r.now()); err == nil {
		if err := s.transport.Send(ctx, data); err != nil {
			r.logger.DebugContext(ctx, "disconnect notice not delivered", "connection_id", id, "error", err)
		}
	}
	if err := s.transport.Close(CloseNormal, "Administrative disconnect"); err != nil {
		r.logger.DebugContext(ctx, "close after disconnect failed", "connection_id", id, "error", err)
	}
	r.Unregister(id)

	r.logger.InfoContext(ctx, "session disconnected by administrator", "connection_id", id, "user_id", s.identity)
	return nil
}

// CloseAll closes and removes every session. It is used during shutdown.
func (r *Registry) CloseAll(code CloseCode, reason string) int {
	targets := r.snapshot(func(*session) bool { return true })
	for _, s := range targets {
		_ = s.transport.Close(code, reason)
		r.Unregister(s.id)
	}
	return len(targets)
}

// Stats computes the current aggregate.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{
		TotalSessions:    len(r.sessions),
		UniqueIdentities: len(r.identities),
		CountsByRole:     make(map[domain.Role]int),
	}
	for _, s := range r.sessions {
		st.CountsByRole[s.role]++
	}
	return st
}

// Sessions lists every registered session, oldest first.
func (r *Registry) Sessions() []SessionInfo {
	r.mu.Lock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, SessionInfo{
			ConnectionID: s.id,
			UserID:       s.identity,
			UserRole:     s.role,
			ConnectedAt:  s.connectedAt,
		})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
