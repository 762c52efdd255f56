package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TransportConfig bounds websocket reads and writes.
type TransportConfig struct {
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	AllowedOrigins  []string
}

func (c TransportConfig) withDefaults() TransportConfig {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 64 << 10
	}
	return c
}

// NewUpgrader builds a websocket upgrader that admits the configured origins.
// An empty origin list admits every origin.
func NewUpgrader(cfg TransportConfig) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			if _, ok := allowed["*"]; ok {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

// wsConn adapts an HTTP upgrade request to Conn. The upgrade itself is
// deferred until Accept so a rejected handshake can still be reported over
// the socket.
type wsConn struct {
	w        http.ResponseWriter
	r        *http.Request
	upgrader *websocket.Upgrader
	cfg      TransportConfig

	acceptOnce sync.Once
	acceptErr  error
	conn       *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

// NewWebSocketConn wraps an upgrade request. Nothing is written to w until
// Accept is called.
func NewWebSocketConn(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, cfg TransportConfig) Conn {
	return &wsConn{w: w, r: r, upgrader: upgrader, cfg: cfg.withDefaults()}
}

func (c *wsConn) Accept(ctx context.Context) error {
	c.acceptOnce.Do(func() {
		conn, err := c.upgrader.Upgrade(c.w, c.r, nil)
		if err != nil {
			c.acceptErr = fmt.Errorf("websocket upgrade failed: %w", err)
			return
		}
		conn.SetReadLimit(c.cfg.MaxMessageBytes)
		c.conn = conn
	})
	return c.acceptErr
}

func (c *wsConn) Send(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return ErrNotAccepted
	}
	if c.closed {
		return ErrTransportClosed
	}

	deadline := time.Now().Add(c.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close(code CloseCode, reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil || c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(int(code), reason)
	werr := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteTimeout))
	cerr := c.conn.Close()
	if werr != nil && werr != websocket.ErrCloseSent {
		return werr
	}
	return cerr
}

// Receive returns the next data frame. A peer close with a normal or
// going-away code is reported as ErrTransportClosed.
func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	if c.conn == nil {
		return nil, ErrNotAccepted
	}
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil, fmt.Errorf("%w: %v", ErrTransportClosed, err)
			}
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}
