// Package orchestrator is the thin glue layer connecting Admin Circuit
// Proposal materialization to the Lifecycle Executor's queue, and scoping
// outbound Circuit Direct Messages to one service via the
// MessageSenderFactory (§4.8 wiring, supplemented feature since the
// distilled spec describes Admin and Lifecycle as independent modules
// without naming what connects them).
package orchestrator

import (
	"context"

	"github.com/splinter-platform/splinter/internal/dispatch"
	"github.com/splinter-platform/splinter/internal/ids"
)

// MessageSenderFactory builds a MessageSender scoped to one service,
// grounded on NetworkMessageSenderFactory::new_message_sender: the
// factory itself is stateless beyond the shared Forwarder, and every
// call produces a sender bound to the circuit of the service it is
// built for.
type MessageSenderFactory struct {
	forwarder *dispatch.Forwarder
}

// NewMessageSenderFactory builds a factory over the shared circuit
// message forwarder.
func NewMessageSenderFactory(forwarder *dispatch.Forwarder) *MessageSenderFactory {
	return &MessageSenderFactory{forwarder: forwarder}
}

// NewMessageSender scopes a MessageSender to scope's circuit. Only the
// circuit id is kept; forwarded messages carry no sender service id.
func (f *MessageSenderFactory) NewMessageSender(scope ids.FullyQualifiedServiceID) *MessageSender {
	return &MessageSender{forwarder: f.forwarder, circuitID: scope.CircuitID()}
}

// MessageSender delivers a Circuit Direct Message payload to another
// service within the same circuit, the Go analogue of
// NetworkMessageSender::send generalized past its routing-table/peer-id
// translation (handled entirely by Forwarder here).
type MessageSender struct {
	forwarder *dispatch.Forwarder
	circuitID ids.CircuitID
}

// Send forwards payload to toService within the sender's circuit.
func (s *MessageSender) Send(ctx context.Context, toService ids.ServiceID, payload []byte) error {
	return s.forwarder.Forward(ctx, string(s.circuitID), string(toService), payload)
}
