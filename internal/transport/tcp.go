package transport

import (
	"context"
	"net"
	"sync"
	"time"
)

// tcpConnection is the tcp:// scheme's Connection: raw length-prefixed
// framing directly over net.Conn, grounded on the teacher's Commu
// send/recv pair (network/coordinator/conn.go) — same per-write deadline
// discipline, replacing its newline-delimited JSON body with the spec's
// fixed binary frame header.
type tcpConnection struct {
	conn   net.Conn
	remote string

	closeOnce sync.Once
	closeErr  error
}

// NewTCPConnection wraps an already-established net.Conn.
func NewTCPConnection(conn net.Conn, remote string) Connection {
	return &tcpConnection{conn: conn, remote: remote}
}

func (c *tcpConnection) Send(ctx context.Context, payload []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	return writeFrame(c.conn, payload)
}

func (c *tcpConnection) Recv(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	return readFrame(c.conn)
}

func (c *tcpConnection) RemoteEndpoint() string { return c.remote }

func (c *tcpConnection) Disconnect() error {
	c.closeOnce.Do(func() { c.closeErr = c.conn.Close() })
	return c.closeErr
}

// tcpListener is the tcp:// scheme's Listener.
type tcpListener struct {
	ln net.Listener
}

// ListenTCP opens a tcp:// listener on address ("host:port").
func ListenTCP(address string) (Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errIO("listen tcp", err)
	}
	return &tcpListener{ln: ln}, nil
}

func (l *tcpListener) Accept(ctx context.Context) (Connection, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, errIO("accept tcp connection", err)
	}
	return NewTCPConnection(conn, conn.RemoteAddr().String()), nil
}

func (l *tcpListener) Close() error {
	if err := l.ln.Close(); err != nil {
		return errIO("close tcp listener", err)
	}
	return nil
}

// tcpDialer is the tcp:// scheme's Dialer.
type tcpDialer struct {
	timeout time.Duration
}

// NewTCPDialer builds a Dialer whose Dial calls give up after timeout.
func NewTCPDialer(timeout time.Duration) Dialer {
	return &tcpDialer{timeout: timeout}
}

func (d *tcpDialer) Dial(ctx context.Context, endpoint string) (Connection, error) {
	dialer := net.Dialer{Timeout: d.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, errIO("dial tcp", err)
	}
	return NewTCPConnection(conn, endpoint), nil
}
