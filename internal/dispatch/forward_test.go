package dispatch

import (
	"context"
	"testing"

	"github.com/splinter-platform/splinter/internal/connection"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/transport"
)

type fakeConn struct{ sent [][]byte }

func (f *fakeConn) Send(ctx context.Context, payload []byte) error {
	f.sent = append(f.sent, payload)
	return nil
}
func (f *fakeConn) Recv(ctx context.Context) ([]byte, error) { return nil, nil }
func (f *fakeConn) RemoteEndpoint() string                   { return "peer:8080" }
func (f *fakeConn) Disconnect() error                        { return nil }

type fakeRouter struct {
	members map[string]bool
	routes  map[string]connection.ID
}

func (r *fakeRouter) IsMember(circuitID, serviceID string) bool {
	return r.members[circuitID+"::"+serviceID]
}

func (r *fakeRouter) ConnectionFor(circuitID, serviceID string) (connection.ID, bool) {
	id, ok := r.routes[circuitID+"::"+serviceID]
	return id, ok
}

func TestForwardSendsToLocalRoute(t *testing.T) {
	matrix := connection.New()
	conn := &fakeConn{}
	matrix.Add("conn-1", conn)

	router := &fakeRouter{
		members: map[string]bool{"circuit-1::svc-a": true},
		routes:  map[string]connection.ID{"circuit-1::svc-a": "conn-1"},
	}
	f := NewForwarder(router, matrix)

	if err := f.Forward(context.Background(), "circuit-1", "svc-a", []byte("payload")); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(conn.sent) != 1 || string(conn.sent[0]) != "payload" {
		t.Fatalf("expected the payload forwarded to the local connection")
	}
}

func TestForwardRejectsNonMember(t *testing.T) {
	f := NewForwarder(&fakeRouter{members: map[string]bool{}}, connection.New())
	err := f.Forward(context.Background(), "circuit-1", "svc-a", nil)
	if !errs.Is(err, KindRecipientNotInCircuit) {
		t.Fatalf("expected KindRecipientNotInCircuit, got %v", err)
	}
}

func TestForwardRejectsNoLocalRoute(t *testing.T) {
	router := &fakeRouter{members: map[string]bool{"circuit-1::svc-a": true}, routes: map[string]connection.ID{}}
	f := NewForwarder(router, connection.New())
	err := f.Forward(context.Background(), "circuit-1", "svc-a", nil)
	if !errs.Is(err, KindNoLocalRoute) {
		t.Fatalf("expected KindNoLocalRoute, got %v", err)
	}
}

var _ transport.Connection = (*fakeConn)(nil)
