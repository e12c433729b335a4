// Package model defines the platform's strictly-typed persisted data
// model (§3 of the spec): circuits, proposals, services, and their
// lifecycle/status enums. Every persisted entity here is a concrete Go
// struct — there is no schemaless map, per the distilled spec's explicit
// non-goal "schemaless storage".
package model

import "github.com/splinter-platform/splinter/internal/ids"

// AuthorizationType names the authorization scheme required for a circuit.
type AuthorizationType string

const (
	AuthTrust     AuthorizationType = "Trust"
	AuthChallenge AuthorizationType = "Challenge"
)

// RoutingMode names how a circuit routes direct messages between services.
type RoutingMode string

const (
	RoutingModeAny     RoutingMode = "any"
	RoutingModeRequire RoutingMode = "require_direct"
)

// ManagementType names the application-level protocol managing a circuit.
type ManagementType string

// PersistenceType names where a circuit's state is kept.
type PersistenceType string

const (
	PersistenceFile     PersistenceType = "file"
	PersistenceSQL      PersistenceType = "sql"
	PersistenceMongo    PersistenceType = "mongo"
)

// CircuitStatus is the circuit lifecycle state (§3 Lifecycles).
type CircuitStatus string

const (
	CircuitActive    CircuitStatus = "Active"
	CircuitDisbanded CircuitStatus = "Disbanded"
	CircuitAbandoned CircuitStatus = "Abandoned"
)

// Member is one node participating in a circuit: its id, the endpoints it
// can be dialed on, and an optional public key (used under Challenge
// authorization).
type Member struct {
	NodeID    ids.NodeID
	Endpoints []string
	PublicKey ids.PublicKey
}

// ServiceArgument is one opaque key/value argument attached to a service.
type ServiceArgument struct {
	Key   string
	Value string
}

// RosterEntry is one service in a circuit's roster: its id, type, owning
// node, and arguments.
type RosterEntry struct {
	ServiceID   ids.ServiceID
	ServiceType string
	OwningNode  ids.NodeID
	Arguments   []ServiceArgument
}

// Circuit is the immutable record of an agreed-upon circuit (§3).
//
// Invariants (enforced by Validate): every service's owning node appears
// in Members; every member has at least one endpoint; endpoints are
// unique platform-wide across active circuits (checked by the caller,
// which has visibility across circuits — see internal/admin).
type Circuit struct {
	CircuitID      ids.CircuitID
	Roster         []RosterEntry
	Members        []Member
	AuthType       AuthorizationType
	Persistence    PersistenceType
	Durable        bool
	Routing        RoutingMode
	Management     ManagementType
	DisplayName    string
	Version        int
	Status         CircuitStatus
}

// Validate checks the circuit's structural invariants.
func (c *Circuit) Validate() error {
	if c.CircuitID == "" {
		return newValidationError("circuit id must not be empty")
	}
	memberSet := make(map[ids.NodeID]bool, len(c.Members))
	for _, m := range c.Members {
		if len(m.Endpoints) == 0 {
			return newValidationError("member %q has no endpoints", m.NodeID)
		}
		memberSet[m.NodeID] = true
	}
	seenServiceIDs := make(map[ids.ServiceID]bool, len(c.Roster))
	for _, svc := range c.Roster {
		if seenServiceIDs[svc.ServiceID] {
			return newValidationError("duplicate service id %q in roster", svc.ServiceID)
		}
		seenServiceIDs[svc.ServiceID] = true
		if !memberSet[svc.OwningNode] {
			return newValidationError("service %q owned by %q, which is not a member", svc.ServiceID, svc.OwningNode)
		}
	}
	return nil
}

// MemberNode reports whether nodeID is a member of the circuit.
func (c *Circuit) MemberNode(nodeID ids.NodeID) bool {
	for _, m := range c.Members {
		if m.NodeID == nodeID {
			return true
		}
	}
	return false
}

// AllEndpoints returns every endpoint advertised by every member, used by
// the platform-wide uniqueness check in the Admin Service.
func (c *Circuit) AllEndpoints() []string {
	var out []string
	for _, m := range c.Members {
		out = append(out, m.Endpoints...)
	}
	return out
}
