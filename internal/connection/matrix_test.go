package connection

import (
	"context"
	"testing"
	"time"

	"github.com/splinter-platform/splinter/internal/errs"
)

type fakeConn struct {
	sent     [][]byte
	recvCh   chan []byte
	closed   bool
	remote   string
}

func newFakeConn(remote string) *fakeConn {
	return &fakeConn{recvCh: make(chan []byte, 4), remote: remote}
}

func (f *fakeConn) Send(ctx context.Context, payload []byte) error {
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeConn) Recv(ctx context.Context) ([]byte, error) {
	select {
	case p := <-f.recvCh:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConn) RemoteEndpoint() string { return f.remote }

func (f *fakeConn) Disconnect() error {
	f.closed = true
	return nil
}

func TestMatrixSendRecv(t *testing.T) {
	m := New()
	conn := newFakeConn("peer-1:8080")
	m.Add("conn-1", conn)

	if err := m.Send(context.Background(), "conn-1", []byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(conn.sent) != 1 || string(conn.sent[0]) != "hi" {
		t.Fatalf("expected the fake connection to record the send")
	}

	conn.recvCh <- []byte("pong")
	got, err := m.Recv(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(got) != "pong" {
		t.Fatalf("expected pong, got %q", got)
	}
}

func TestMatrixSendUnknownIDIsNotFound(t *testing.T) {
	m := New()
	err := m.Send(context.Background(), "missing", []byte("x"))
	if !errs.Is(err, KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestMatrixRecvTimeout(t *testing.T) {
	m := New()
	m.Add("conn-1", newFakeConn("peer-1:8080"))
	_, err := m.RecvTimeout(context.Background(), "conn-1", 20*time.Millisecond)
	if !errs.Is(err, KindMatrixTimeout) {
		t.Fatalf("expected KindMatrixTimeout, got %v", err)
	}
}

func TestMatrixRemoveDisconnects(t *testing.T) {
	m := New()
	conn := newFakeConn("peer-1:8080")
	m.Add("conn-1", conn)
	if err := m.Remove("conn-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !conn.closed {
		t.Fatalf("expected Remove to disconnect the underlying connection")
	}
	if m.Len() != 0 {
		t.Fatalf("expected the matrix to be empty after Remove")
	}
}
