// Package consensus implements the Two-Phase Commit Consensus Core
// (spec §4.7): a pure context+event→actions algorithm, a durable action
// runner, and a notify-as-commands observer. The algorithm itself never
// touches the store or the network directly — it only produces a list of
// Actions, which the ActionRunner persists and then executes, so the
// whole core is deterministic and replayable (§8 "replayed from the store
// yields the same final context as the live run").
//
// Grounded on the teacher's coordinator/participant phase shape
// (network/coordinator/2pc.go) and, for the exact notify-as-commands
// behavior, original_source's consensus_action_runner/notify_observer.
package consensus

import (
	"time"

	"github.com/splinter-platform/splinter/internal/ids"
)

// Process identifies one participant in a 2PC epoch. In this platform a
// process is always a service's owning node, addressed by node id.
type Process = ids.NodeID

// CoordinatorState is the coordinator role's sub-state machine (§3).
type CoordinatorState int

const (
	CoordinatorWaitingForStart CoordinatorState = iota
	CoordinatorVoting
	CoordinatorWaitingForVote
	CoordinatorCommit
	CoordinatorAbort
)

func (s CoordinatorState) String() string {
	switch s {
	case CoordinatorWaitingForStart:
		return "WaitingForStart"
	case CoordinatorVoting:
		return "Voting"
	case CoordinatorWaitingForVote:
		return "WaitingForVote"
	case CoordinatorCommit:
		return "Commit"
	case CoordinatorAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

// ParticipantState is the participant role's sub-state machine (§3).
type ParticipantState int

const (
	ParticipantWaitingForVoteRequest ParticipantState = iota
	ParticipantWaitingForVote
	ParticipantVoted
	ParticipantCommit
	ParticipantAbort
)

func (s ParticipantState) String() string {
	switch s {
	case ParticipantWaitingForVoteRequest:
		return "WaitingForVoteRequest"
	case ParticipantWaitingForVote:
		return "WaitingForVote"
	case ParticipantVoted:
		return "Voted"
	case ParticipantCommit:
		return "Commit"
	case ParticipantAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

// ParticipantVote records one coordinator-side participant's vote, if any
// has been received yet.
type ParticipantVote struct {
	Process Process
	Vote    *bool
}

// Role tags which role_context kind a Context carries (§3: "Coordinator
// {...} or Participant {...}" — an explicit kind tag with the data needed
// for that kind, per the distilled spec's tagged-variant design note).
type Role int

const (
	RoleCoordinator Role = iota
	RoleParticipant
)

// RoleContext is the per-role sub-state. Exactly one of the two groups of
// fields is meaningful, selected by Role.
type RoleContext struct {
	Role Role

	// Coordinator fields.
	Participants    []ParticipantVote
	CoordinatorState CoordinatorState
	VoteTimeoutStart time.Time

	// Participant fields.
	ParticipantProcesses []Process
	ParticipantState     ParticipantState
	Vote                 *bool
	DecisionTimeoutStart time.Time
}

// Context is one 2PC epoch's full state (§3 "2PC Context").
//
// Invariants: exactly one terminal state (Commit/Abort) per epoch;
// LastCommitEpoch < Epoch whenever set; if Coordinator == ThisProcess the
// role is Coordinator, else Participant (NewCoordinatorContext sets both
// to thisProcess; NewParticipantContext rejects a coordinator equal to
// thisProcess).
type Context struct {
	ServiceID       ids.FullyQualifiedServiceID
	Coordinator     Process
	ThisProcess     Process
	Epoch           uint64
	LastCommitEpoch *uint64
	Role            RoleContext
	Alarm           *time.Time
}

// NewCoordinatorContext builds a fresh Context in the Coordinator role,
// waiting for Start.
func NewCoordinatorContext(serviceID ids.FullyQualifiedServiceID, thisProcess Process, epoch uint64, lastCommitEpoch *uint64, participants []Process) (*Context, error) {
	if err := checkEpochOrdering(epoch, lastCommitEpoch); err != nil {
		return nil, err
	}
	pv := make([]ParticipantVote, 0, len(participants))
	for _, p := range participants {
		pv = append(pv, ParticipantVote{Process: p})
	}
	return &Context{
		ServiceID:       serviceID,
		Coordinator:     thisProcess,
		ThisProcess:     thisProcess,
		Epoch:           epoch,
		LastCommitEpoch: lastCommitEpoch,
		Role: RoleContext{
			Role:             RoleCoordinator,
			Participants:     pv,
			CoordinatorState: CoordinatorWaitingForStart,
		},
	}, nil
}

// NewParticipantContext builds a fresh Context in the Participant role,
// waiting for a vote request.
func NewParticipantContext(serviceID ids.FullyQualifiedServiceID, coordinator, thisProcess Process, epoch uint64, lastCommitEpoch *uint64, otherParticipants []Process) (*Context, error) {
	if coordinator == thisProcess {
		return nil, errInvalidRole("participant context must not name itself as coordinator")
	}
	if err := checkEpochOrdering(epoch, lastCommitEpoch); err != nil {
		return nil, err
	}
	return &Context{
		ServiceID:       serviceID,
		Coordinator:     coordinator,
		ThisProcess:     thisProcess,
		Epoch:           epoch,
		LastCommitEpoch: lastCommitEpoch,
		Role: RoleContext{
			Role:                 RoleParticipant,
			ParticipantProcesses: otherParticipants,
			ParticipantState:     ParticipantWaitingForVoteRequest,
		},
	}, nil
}

func checkEpochOrdering(epoch uint64, lastCommitEpoch *uint64) error {
	if lastCommitEpoch != nil && *lastCommitEpoch >= epoch {
		return errInvalidRole("last_commit_epoch must be strictly less than epoch")
	}
	return nil
}

// IsCoordinator reports whether this context's role is Coordinator,
// consistent with Coordinator == ThisProcess.
func (c *Context) IsCoordinator() bool { return c.Role.Role == RoleCoordinator }

// IsTerminal reports whether the context has reached Commit or Abort.
func (c *Context) IsTerminal() bool {
	if c.IsCoordinator() {
		return c.Role.CoordinatorState == CoordinatorCommit || c.Role.CoordinatorState == CoordinatorAbort
	}
	return c.Role.ParticipantState == ParticipantCommit || c.Role.ParticipantState == ParticipantAbort
}
