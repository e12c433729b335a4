// Package dispatch implements the Message Dispatcher (§4.5): an outer
// dispatch loop keyed by the Network/Circuit/Component envelope tag, each
// level forwarding to an inner, message-type-keyed handler set.
//
// Grounded on the teacher's tagged-envelope shape (network.PaGossip's
// Mark field discriminating CoordinatorGossip/Gossip payloads,
// network/msg.go) generalized into a proper handler registry, and
// original_source/libsplinter/src/circuit/handlers/circuit_message.rs's
// "receive on one dispatcher, re-dispatch the inner payload on another"
// pattern for the Network -> Circuit -> Component handoff.
package dispatch

import "context"

// MessageType names one kind of payload a Handler matches, scoped within
// whichever dispatcher level it's registered on (the outer Network-level
// dispatcher and each inner Circuit/Component-level dispatcher keep
// separate MessageType namespaces).
type MessageType string

// MessageContext carries the provenance of one dispatched message.
type MessageContext struct {
	SourceID    string
	MessageType MessageType
}

// MessageSender lets a Handler reply to, or forward on behalf of, the
// message it is handling.
type MessageSender interface {
	Send(ctx context.Context, peerID string, payload []byte) error
}

// Handler processes one MessageType's payloads.
type Handler interface {
	MatchType() MessageType
	Handle(ctx context.Context, payload []byte, msgCtx MessageContext, sender MessageSender) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc struct {
	Type MessageType
	Fn   func(ctx context.Context, payload []byte, msgCtx MessageContext, sender MessageSender) error
}

func (h HandlerFunc) MatchType() MessageType { return h.Type }

func (h HandlerFunc) Handle(ctx context.Context, payload []byte, msgCtx MessageContext, sender MessageSender) error {
	return h.Fn(ctx, payload, msgCtx, sender)
}
