package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/jobs"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeConn records frames and lets tests inject inbound frames and failures.
type fakeConn struct {
	mu          sync.Mutex
	accepts     int
	acceptErr   error
	sendErr     error
	sent        [][]byte
	closed      bool
	closeCode   CloseCode
	closeReason string

	inbound chan []byte
	done    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), done: make(chan struct{})}
}

func (f *fakeConn) Accept(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepts++
	return f.acceptErr
}

func (f *fakeConn) Send(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrTransportClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close(code CloseCode, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.closeCode = code
	f.closeReason = reason
	close(f.done)
	return nil
}

func (f *fakeConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-f.inbound:
		return data, nil
	case <-f.done:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConn) failSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeConn) closeInfo() (bool, CloseCode, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed, f.closeCode, f.closeReason
}

// frames decodes every frame sent so far.
func (f *fakeConn) frames(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.sent))
	for _, raw := range f.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

// framesOfType returns the decoded frames whose type is typ.
func (f *fakeConn) framesOfType(t *testing.T, typ MessageType) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.frames(t) {
		if m["type"] == string(typ) {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// waitFrames blocks until at least n frames were sent.
func (f *fakeConn) waitFrames(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.sentCount() >= n }, 2*time.Second, 5*time.Millisecond)
}

func mustRegister(t *testing.T, r *Registry, identity int64, role domain.Role) (SessionID, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	id, err := r.Register(context.Background(), conn, identity, role)
	require.NoError(t, err)
	return id, conn
}

type fakeVerifier struct {
	claims map[string]*auth.Claims
	errs   map[string]error
}

func (v *fakeVerifier) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if err, ok := v.errs[token]; ok {
		return nil, err
	}
	if c, ok := v.claims[token]; ok {
		return c, nil
	}
	return nil, auth.ErrInvalidToken
}

type fakeUsers struct {
	users map[int64]*domain.User
	err   error
}

func (u *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

// inlineSubmitter runs jobs on the caller's goroutine.
type inlineSubmitter struct{}

func (inlineSubmitter) Submit(job jobs.Job) error {
	return job.Execute(context.Background())
}

type rejectingSubmitter struct{}

func (rejectingSubmitter) Submit(jobs.Job) error { return jobs.ErrQueueFull }
