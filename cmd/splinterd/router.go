package main

import (
	"context"

	"github.com/splinter-platform/splinter/internal/connection"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/peer"
)

// circuitRouter adapts a circuit-loading store and the Peer Manager into
// dispatch.CircuitRouter, the lookup the Forwarder needs to turn a
// (circuit, service) pair into a live connection id. Left here rather
// than in internal/dispatch since it is pure composition over two other
// packages' already-built lookups, not new routing logic.
type circuitRouter struct {
	loader    circuitLoader
	peers     *peer.Manager
	nodeTrust func(ids.NodeID) ids.PeerAuthorizationToken
}

type circuitLoader interface {
	LoadCircuit(ctx context.Context, circuitID ids.CircuitID) (*model.Circuit, error)
}

func owningNode(c *model.Circuit, serviceID string) (ids.NodeID, bool) {
	for _, entry := range c.Roster {
		if string(entry.ServiceID) == serviceID {
			return entry.OwningNode, true
		}
	}
	return "", false
}

// IsMember reports whether serviceID is in circuitID's roster.
func (r *circuitRouter) IsMember(circuitID, serviceID string) bool {
	c, err := r.loader.LoadCircuit(context.Background(), ids.CircuitID(circuitID))
	if err != nil {
		return false
	}
	_, ok := owningNode(c, serviceID)
	return ok
}

// ConnectionFor resolves serviceID's owning node to its current peer
// connection, or (zero, false) if it isn't connected right now.
func (r *circuitRouter) ConnectionFor(circuitID, serviceID string) (connection.ID, bool) {
	c, err := r.loader.LoadCircuit(context.Background(), ids.CircuitID(circuitID))
	if err != nil {
		return "", false
	}
	nodeID, ok := owningNode(c, serviceID)
	if !ok {
		return "", false
	}
	remote := r.nodeTrust(nodeID)
	pair := ids.NewPeerTokenPair(remote, remote)
	connID, err := r.peers.ConnectionIDFor(pair)
	if err != nil {
		return "", false
	}
	return connID, true
}
