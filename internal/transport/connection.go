package transport

import "context"

// Connection is the interface both the tcp:// and tls:// schemes present
// to the rest of the system (§4.1): send/recv opaque frame payloads,
// disconnect. Identical across schemes so the Connection Matrix never
// needs to know which one it is holding.
type Connection interface {
	// Send writes one frame. Safe to call concurrently with Recv, not
	// with another Send.
	Send(ctx context.Context, payload []byte) error
	// Recv blocks for the next frame. Safe to call concurrently with
	// Send, not with another Recv.
	Recv(ctx context.Context) ([]byte, error)
	// RemoteEndpoint names the peer this connection reaches, in the
	// scheme's own address form (e.g. "tcp://host:port").
	RemoteEndpoint() string
	// Disconnect closes the connection. Idempotent.
	Disconnect() error
}

// Listener accepts inbound Connections for one transport scheme.
type Listener interface {
	Accept(ctx context.Context) (Connection, error)
	Close() error
}

// Dialer opens outbound Connections for one transport scheme.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Connection, error)
}
