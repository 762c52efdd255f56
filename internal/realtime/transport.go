package realtime

import "context"

// Transport is the send side of one client connection. A Transport is owned
// by exactly one session.
type Transport interface {
	// Accept completes the transport-level handshake. Implementations must
	// make repeated calls harmless.
	Accept(ctx context.Context) error

	// Send writes one frame. It must not block past the transport's write
	// deadline; a returned error means the peer is unusable.
	Send(ctx context.Context, data []byte) error

	// Close sends a close frame with code and reason and releases the
	// connection. Repeated calls are no-ops.
	Close(code CloseCode, reason string) error
}

// Conn is a Transport that can also receive frames.
type Conn interface {
	Transport

	// Receive blocks until the next frame arrives or the connection ends.
	Receive(ctx context.Context) ([]byte, error)
}
