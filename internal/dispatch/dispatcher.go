package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/splinter-platform/splinter/internal/errs"
)

// Dispatcher routes payloads to the Handler registered for their
// MessageType, running handlers on a bounded worker pool so one slow
// handler cannot starve the connection read loop feeding it (§4.5,
// "bounded non-blocking handler execution").
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[MessageType]Handler

	group *errgroup.Group
}

// NewDispatcher builds a Dispatcher whose handlers run on at most
// concurrency goroutines at once. Handlers started by DispatchAsync
// receive context.Background(), so cancelling ctx does not stop them.
func NewDispatcher(ctx context.Context, concurrency int) *Dispatcher {
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	return &Dispatcher{handlers: make(map[MessageType]Handler), group: group}
}

// SetHandler registers h for its MatchType, replacing any previous
// handler for that type.
func (d *Dispatcher) SetHandler(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[h.MatchType()] = h
}

// Dispatch runs the handler for msgType synchronously, for callers that
// need the result before proceeding (e.g. a reply-bearing RPC).
func (d *Dispatcher) Dispatch(ctx context.Context, sourceID string, msgType MessageType, payload []byte, sender MessageSender) error {
	h, ok := d.lookup(msgType)
	if !ok {
		return errs.Newf(errs.KindNoHandler, "no handler registered for message type %q", msgType)
	}
	return h.Handle(ctx, payload, MessageContext{SourceID: sourceID, MessageType: msgType}, sender)
}

// DispatchAsync submits the handler for msgType to the bounded pool,
// returning immediately once a slot is available (it blocks only when
// every slot is already in use, never spawning unbounded goroutines).
// Errors surface through Wait.
func (d *Dispatcher) DispatchAsync(sourceID string, msgType MessageType, payload []byte, sender MessageSender) {
	h, ok := d.lookup(msgType)
	if !ok {
		d.group.Go(func() error {
			return errs.Newf(errs.KindNoHandler, "no handler registered for message type %q", msgType)
		})
		return
	}
	ctx := MessageContext{SourceID: sourceID, MessageType: msgType}
	d.group.Go(func() error {
		return h.Handle(context.Background(), payload, ctx, sender)
	})
}

// Wait blocks until every dispatched-but-not-yet-finished handler
// returns, reporting the first error encountered, if any.
func (d *Dispatcher) Wait() error {
	return d.group.Wait()
}

func (d *Dispatcher) lookup(msgType MessageType) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[msgType]
	return h, ok
}
