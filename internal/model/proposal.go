package model

import "github.com/splinter-platform/splinter/internal/ids"

// ProposedMember is a circuit member as it appears inside a not-yet-
// ratified proposal: only node id, endpoints, and an optional key — no
// status fields, since nothing about it is durable yet.
type ProposedMember struct {
	NodeID    ids.NodeID
	Endpoints []string
	PublicKey ids.PublicKey
}

// ProposedCircuit mirrors Circuit's shape but with ProposedMembers instead
// of Members, per §3 "Circuit Proposal".
type ProposedCircuit struct {
	CircuitID   ids.CircuitID
	Roster      []RosterEntry
	Members     []ProposedMember
	AuthType    AuthorizationType
	Persistence PersistenceType
	Durable     bool
	Routing     RoutingMode
	Management  ManagementType
	DisplayName string
}

// ToCircuit materializes a ProposedCircuit into a durable, Active Circuit
// (§4.6 step 4, "materialization step").
func (p *ProposedCircuit) ToCircuit(version int) *Circuit {
	members := make([]Member, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, Member{NodeID: m.NodeID, Endpoints: m.Endpoints, PublicKey: m.PublicKey})
	}
	return &Circuit{
		CircuitID:   p.CircuitID,
		Roster:      p.Roster,
		Members:     members,
		AuthType:    p.AuthType,
		Persistence: p.Persistence,
		Durable:     p.Durable,
		Routing:     p.Routing,
		Management:  p.Management,
		DisplayName: p.DisplayName,
		Version:     version,
		Status:      CircuitActive,
	}
}

// VoteDecision is a member's vote on a proposal.
type VoteDecision string

const (
	VoteAccept VoteDecision = "Accept"
	VoteReject VoteDecision = "Reject"
)

// Vote is one member's recorded vote on a proposal.
type Vote struct {
	VoterNodeID ids.NodeID
	VoterKey    ids.PublicKey
	Decision    VoteDecision
}

// ProposalStatus tracks a proposal's lifecycle (§3 Lifecycles: Proposed →
// {Active, Discarded}).
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "Pending"
	ProposalAccepted ProposalStatus = "Accepted"
	ProposalRejected ProposalStatus = "Rejected"
)

// CircuitProposal is a circuit awaiting unanimous consent (§3).
//
// Invariant: at most one vote per (proposal, voter node) — enforced by
// RecordVote.
type CircuitProposal struct {
	CircuitID       ids.CircuitID
	Circuit         ProposedCircuit
	RequesterKey    ids.PublicKey
	RequesterNodeID ids.NodeID
	Votes           []Vote
	Status          ProposalStatus
}

// RecordVote appends a vote, rejecting a second vote from the same node.
func (p *CircuitProposal) RecordVote(v Vote) error {
	for _, existing := range p.Votes {
		if existing.VoterNodeID == v.VoterNodeID {
			return newValidationError("node %q already voted on proposal %q", v.VoterNodeID, p.CircuitID)
		}
	}
	p.Votes = append(p.Votes, v)
	return nil
}

// NonRequesterMembers returns every proposed member other than the
// requester, the set that must unanimously Accept for the proposal to be
// ratified (§3 "Terminal when all non-requester members have voted
// Accept").
func (p *CircuitProposal) NonRequesterMembers() []ids.NodeID {
	out := make([]ids.NodeID, 0, len(p.Circuit.Members))
	for _, m := range p.Circuit.Members {
		if m.NodeID != p.RequesterNodeID {
			out = append(out, m.NodeID)
		}
	}
	return out
}

// Outcome inspects the recorded votes against NonRequesterMembers and
// reports whether the proposal is ready to materialize, has been
// rejected, or is still pending.
//
//   - Any Reject vote from any member → Rejected (§3: "Terminal when ...
//     any member has voted Reject").
//   - Accept from every non-requester member, and no Reject → Accepted.
//   - Otherwise → still Pending.
func (p *CircuitProposal) Outcome() ProposalStatus {
	accepted := make(map[ids.NodeID]bool, len(p.Votes))
	for _, v := range p.Votes {
		if v.Decision == VoteReject {
			return ProposalRejected
		}
		accepted[v.VoterNodeID] = true
	}
	for _, nodeID := range p.NonRequesterMembers() {
		if !accepted[nodeID] {
			return ProposalPending
		}
	}
	return ProposalAccepted
}
