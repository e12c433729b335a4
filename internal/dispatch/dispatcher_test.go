package dispatch

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/splinter-platform/splinter/internal/errs"
)

type noopSender struct{}

func (noopSender) Send(ctx context.Context, peerID string, payload []byte) error { return nil }

func TestDispatchSyncInvokesRegisteredHandler(t *testing.T) {
	d := NewDispatcher(context.Background(), 4)
	var got MessageContext
	d.SetHandler(HandlerFunc{Type: "circuit", Fn: func(ctx context.Context, payload []byte, msgCtx MessageContext, sender MessageSender) error {
		got = msgCtx
		return nil
	}})

	if err := d.Dispatch(context.Background(), "peer-1", "circuit", []byte("hi"), noopSender{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got.SourceID != "peer-1" || got.MessageType != "circuit" {
		t.Fatalf("unexpected context: %+v", got)
	}
}

func TestDispatchSyncNoHandler(t *testing.T) {
	d := NewDispatcher(context.Background(), 4)
	err := d.Dispatch(context.Background(), "peer-1", "unknown", nil, noopSender{})
	if !errs.Is(err, errs.KindNoHandler) {
		t.Fatalf("expected KindNoHandler, got %v", err)
	}
}

func TestDispatchAsyncBoundsConcurrencyAndCollectsErrors(t *testing.T) {
	d := NewDispatcher(context.Background(), 2)
	var handled int32
	d.SetHandler(HandlerFunc{Type: "ok", Fn: func(ctx context.Context, payload []byte, msgCtx MessageContext, sender MessageSender) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}})

	for i := 0; i < 10; i++ {
		d.DispatchAsync("peer-1", "ok", nil, noopSender{})
	}
	d.DispatchAsync("peer-1", "missing", nil, noopSender{})

	err := d.Wait()
	if !errs.Is(err, errs.KindNoHandler) {
		t.Fatalf("expected KindNoHandler surfaced from Wait, got %v", err)
	}
	if atomic.LoadInt32(&handled) != 10 {
		t.Fatalf("expected all 10 ok handlers to run, got %d", handled)
	}
}
