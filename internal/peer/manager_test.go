package peer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/splinter-platform/splinter/internal/connection"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/transport"
)

type fakeConn struct{ remote string }

func (f *fakeConn) Send(ctx context.Context, payload []byte) error { return nil }
func (f *fakeConn) Recv(ctx context.Context) ([]byte, error)       { return nil, nil }
func (f *fakeConn) RemoteEndpoint() string                          { return f.remote }
func (f *fakeConn) Disconnect() error                               { return nil }

type fakeDialer struct {
	fail bool
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (transport.Connection, error) {
	if d.fail {
		return nil, errs.New(errs.KindIO, "dial refused")
	}
	return &fakeConn{remote: endpoint}, nil
}

func testLogger() *logging.Logger {
	return logging.New("test", logging.LevelError, io.Discard)
}

func TestAddPeerDialsAndRefcounts(t *testing.T) {
	matrix := connection.New()
	dialer := &fakeDialer{}
	m := NewManager(matrix, dialer, testLogger())

	tok := ids.NewPeerTokenPair(ids.TrustToken("node-b"), ids.TrustToken("node-a"))
	connID, err := m.AddPeer(context.Background(), tok, "node-b:8080")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, matrix.Len())

	second, err := m.AddPeer(context.Background(), tok, "node-b:8080")
	assert.Equal(t, nil, err)
	assert.Equal(t, connID, second)
	assert.Equal(t, 1, matrix.Len())

	assert.Equal(t, nil, m.RemovePeer(tok))
	assert.Equal(t, 1, matrix.Len())
	assert.Equal(t, nil, m.RemovePeer(tok))
	assert.Equal(t, 0, matrix.Len())
}

func TestAddPeerFailureSchedulesBackoff(t *testing.T) {
	matrix := connection.New()
	dialer := &fakeDialer{fail: true}
	m := NewManager(matrix, dialer, testLogger())

	tok := ids.NewPeerTokenPair(ids.TrustToken("node-c"), ids.TrustToken("node-a"))
	_, err := m.AddPeer(context.Background(), tok, "node-c:8080")
	if !errs.Is(err, KindAddFailed) {
		t.Fatalf("expected KindAddFailed, got %v", err)
	}

	due := m.DueForReconnect(time.Now())
	if len(due) != 0 {
		t.Fatalf("expected no peer due immediately after a fresh backoff, got %d", len(due))
	}
	due = m.DueForReconnect(time.Now().Add(2 * time.Second))
	if len(due) != 1 {
		t.Fatalf("expected the peer due after its backoff elapses, got %d", len(due))
	}
}

func TestRemoveUnknownPeerIsUnknownPeer(t *testing.T) {
	m := NewManager(connection.New(), &fakeDialer{}, testLogger())
	tok := ids.NewPeerTokenPair(ids.TrustToken("ghost"), ids.TrustToken("node-a"))
	if err := m.RemovePeer(tok); !errs.Is(err, KindUnknownPeer) {
		t.Fatalf("expected KindUnknownPeer, got %v", err)
	}
}
