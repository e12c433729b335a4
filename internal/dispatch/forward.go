package dispatch

import (
	"context"

	"github.com/splinter-platform/splinter/internal/connection"
	"github.com/splinter-platform/splinter/internal/errs"
)

// Circuit-forwarding error kinds (§4.5's ServiceForwardingError),
// grounded on circuit_message.rs's DispatchError::NetworkSendError path
// generalized into the three distinct forwarding failure modes the spec
// names: the recipient was never a member of the circuit, it is a member
// but has no route from this node, or the route exists but the send
// itself failed.
const (
	KindRecipientNotInCircuit errs.Kind = "recipient_not_in_circuit"
	KindNoLocalRoute          errs.Kind = "no_local_route"
	KindSendFailed            errs.Kind = "forward_send_failed"
)

// CircuitRouter answers the two questions Forwarder needs to route a
// circuit-scoped message: is serviceID actually a member of circuitID,
// and if so, which local connection reaches it.
type CircuitRouter interface {
	IsMember(circuitID, serviceID string) bool
	ConnectionFor(circuitID, serviceID string) (connection.ID, bool)
}

// Forwarder relays circuit-message payloads to the local connection
// backing their recipient service.
type Forwarder struct {
	router CircuitRouter
	matrix *connection.Matrix
}

// NewForwarder builds a Forwarder routing through router and sending over
// matrix.
func NewForwarder(router CircuitRouter, matrix *connection.Matrix) *Forwarder {
	return &Forwarder{router: router, matrix: matrix}
}

// Forward relays payload to serviceID within circuitID.
func (f *Forwarder) Forward(ctx context.Context, circuitID, serviceID string, payload []byte) error {
	if !f.router.IsMember(circuitID, serviceID) {
		return errs.Newf(KindRecipientNotInCircuit, "%q is not a member of circuit %q", serviceID, circuitID)
	}
	connID, ok := f.router.ConnectionFor(circuitID, serviceID)
	if !ok {
		return errs.Newf(KindNoLocalRoute, "no local route to %q in circuit %q", serviceID, circuitID)
	}
	if err := f.matrix.Send(ctx, connID, payload); err != nil {
		return errs.Wrap(KindSendFailed, "forward to "+serviceID, err)
	}
	return nil
}
