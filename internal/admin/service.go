package admin

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

// Service is the Admin Circuit Proposal Protocol's single coordination
// point for a node: every proposal, vote, disband, and abandon action
// for every circuit this node participates in passes through it, the
// same way txnHandler serializes voting for one transaction behind a
// single *Manager.
type Service struct {
	mu       sync.Mutex
	store    ProposalStore
	registry *Registry
	events   *EventLog
	log      *logging.Logger
}

// NewService builds a Service persisting through backing and publishing
// to events.
func NewService(backing ProposalStore, registry *Registry, events *EventLog, log *logging.Logger) *Service {
	return &Service{store: backing, registry: registry, events: events, log: log.With("admin")}
}

// ProposeCircuit validates and persists a new proposal, auto-accepting it
// (and materializing the circuit immediately) when the requester is the
// circuit's only member — the degenerate unanimity case.
func (s *Service) ProposeCircuit(ctx context.Context, proposed model.ProposedCircuit, requesterNodeID ids.NodeID, requesterKey ids.PublicKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.ValidateProposal(&proposed); err != nil {
		return err
	}

	proposal := &model.CircuitProposal{
		CircuitID:       proposed.CircuitID,
		Circuit:         proposed,
		RequesterKey:    requesterKey,
		RequesterNodeID: requesterNodeID,
		Status:          model.ProposalPending,
	}

	if err := s.store.ExecuteCommands(ctx, []store.StoreCommand[pgx.Tx]{store.SaveProposalCommand(proposal)}); err != nil {
		return err
	}
	s.events.Publish(Event{Kind: EventProposed, CircuitID: proposal.CircuitID})

	return s.settleIfReady(ctx, proposal)
}

// Vote records nodeID's decision on circuitID's proposal, materializing
// the circuit in the same transaction as the final accepting vote if the
// vote completes unanimity, or marking the proposal Rejected if it is a
// Reject (§4.6: "unanimity -> materialize in one Store Command
// transaction").
func (s *Service) Vote(ctx context.Context, circuitID ids.CircuitID, vote model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.store.LoadProposal(ctx, circuitID)
	if err != nil {
		return err
	}
	if proposal.Status != model.ProposalPending {
		return errs.Newf(errs.KindInvalidState, "proposal %q is not pending (status %s)", circuitID, proposal.Status)
	}
	if err := proposal.RecordVote(vote); err != nil {
		return errs.Wrap(errs.KindVoteAlreadyRecorded, "record vote", err)
	}

	s.events.Publish(Event{Kind: EventVoted, CircuitID: circuitID, Detail: string(vote.VoterNodeID) + ":" + string(vote.Decision)})
	return s.settleIfReady(ctx, proposal)
}

// settleIfReady persists the proposal's current vote tally and, if the
// tally is now decisive, performs the matching transition (materialize
// on Accepted, mark Rejected on Rejected) in the same commands slice so
// both happen atomically.
func (s *Service) settleIfReady(ctx context.Context, proposal *model.CircuitProposal) error {
	switch proposal.Outcome() {
	case model.ProposalAccepted:
		proposal.Status = model.ProposalAccepted
		circuit := proposal.Circuit.ToCircuit(1)
		commands := []store.StoreCommand[pgx.Tx]{
			store.SaveProposalCommand(proposal),
			store.MaterializeCircuitCommand(circuit, proposal.CircuitID),
		}
		if err := s.store.ExecuteCommands(ctx, commands); err != nil {
			return err
		}
		s.registry.Observe(circuit)
		s.events.Publish(Event{Kind: EventAccepted, CircuitID: proposal.CircuitID})
		return nil

	case model.ProposalRejected:
		proposal.Status = model.ProposalRejected
		if err := s.store.ExecuteCommands(ctx, []store.StoreCommand[pgx.Tx]{store.SaveProposalCommand(proposal)}); err != nil {
			return err
		}
		s.events.Publish(Event{Kind: EventRejected, CircuitID: proposal.CircuitID})
		return nil

	default:
		return s.store.ExecuteCommands(ctx, []store.StoreCommand[pgx.Tx]{store.SaveProposalCommand(proposal)})
	}
}

// Disband marks an Active circuit Disbanded, freeing its registry claims.
// Per §3, disbanding (unlike abandon) requires the same per-member
// proposal/vote workflow in a full implementation; this entry point
// performs the terminal status flip once that workflow (handled like any
// other proposal via ProposeCircuit/Vote against a disband-flagged
// ProposedCircuit) has already reached unanimity.
func (s *Service) Disband(ctx context.Context, circuitID ids.CircuitID) error {
	return s.terminate(ctx, circuitID, model.CircuitDisbanded, EventDisbanded)
}

// Abandon marks an Active circuit Abandoned unilaterally: no vote is
// required (§3's distinction from Disband).
func (s *Service) Abandon(ctx context.Context, circuitID ids.CircuitID) error {
	return s.terminate(ctx, circuitID, model.CircuitAbandoned, EventAbandoned)
}

func (s *Service) terminate(ctx context.Context, circuitID ids.CircuitID, status model.CircuitStatus, kind EventKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	circuit, err := s.store.LoadCircuit(ctx, circuitID)
	if err != nil {
		return err
	}
	if circuit.Status != model.CircuitActive {
		return errs.Newf(errs.KindInvalidState, "circuit %q is not active (status %s)", circuitID, circuit.Status)
	}
	circuit.Status = status
	circuit.Version++
	if err := s.store.ExecuteCommands(ctx, []store.StoreCommand[pgx.Tx]{store.MaterializeCircuitCommand(circuit, circuitID)}); err != nil {
		return err
	}
	s.registry.Forget(circuit)
	s.events.Publish(Event{Kind: kind, CircuitID: circuitID})
	return nil
}
