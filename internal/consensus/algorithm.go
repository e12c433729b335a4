package consensus

import "time"

// VoteTimeout bounds how long a coordinator waits for all votes before
// aborting; DecisionTimeout bounds how long a participant waits for a
// decision before aborting on its own, which it does only after a No
// vote (§4.7). These are defaults; internal/config.RuntimeConfig
// carries the operational values wired in by the caller.
const (
	DefaultVoteTimeout     = 10 * time.Second
	DefaultDecisionTimeout = 30 * time.Second
)

// Transition runs the pure 2PC algorithm: given the current Context and
// an incoming Event, it returns the ordered list of Actions the caller
// must persist and then execute (§4.7). Transition never mutates ctx —
// every resulting state lives only inside the returned ActionUpdate, so
// replaying the same (ctx, event) pair is always safe.
func Transition(ctx *Context, event Event, now time.Time, voteTimeout, decisionTimeout time.Duration) ([]Action, error) {
	if event.Kind == EventDeliver {
		return []Action{notifyAction(Notification{Kind: NotifyMessageDropped, Reason: "unclassified message " + event.RawMessageType})}, nil
	}
	if ctx.IsTerminal() {
		return nil, errInvalidRole("context for %s epoch %d is already terminal", ctx.ServiceID, ctx.Epoch)
	}
	if ctx.IsCoordinator() {
		return transitionCoordinator(ctx, event, now, voteTimeout)
	}
	return transitionParticipant(ctx, event, now, decisionTimeout)
}

func cloneContext(ctx *Context) *Context {
	cp := *ctx
	cp.Role.Participants = append([]ParticipantVote(nil), ctx.Role.Participants...)
	cp.Role.ParticipantProcesses = append([]Process(nil), ctx.Role.ParticipantProcesses...)
	return &cp
}

func transitionCoordinator(ctx *Context, event Event, now time.Time, voteTimeout time.Duration) ([]Action, error) {
	switch ctx.Role.CoordinatorState {
	case CoordinatorWaitingForStart:
		if event.Kind != EventStart {
			return nil, errUnknownContext("coordinator waiting for Start, got %v", event.Kind)
		}
		next := cloneContext(ctx)
		next.Role.CoordinatorState = CoordinatorVoting
		next.Role.VoteTimeoutStart = now
		actions := []Action{updateAction(next), notifyAction(Notification{Kind: NotifyCoordinatorRequestForVote, Value: event.Value})}
		for _, p := range next.Role.Participants {
			actions = append(actions, sendAction(p.Process, Message{Kind: MessageVoteRequest, Epoch: ctx.Epoch, Value: event.Value}))
		}
		return actions, nil

	case CoordinatorVoting:
		switch event.Kind {
		case EventVoteResponse:
			next := cloneContext(ctx)
			found := false
			for i := range next.Role.Participants {
				if next.Role.Participants[i].Process == event.From {
					v := event.Vote
					next.Role.Participants[i].Vote = &v
					found = true
					break
				}
			}
			if !found {
				return []Action{notifyAction(Notification{Kind: NotifyMessageDropped, Reason: "vote from unknown participant"})}, nil
			}
			if !event.Vote {
				return abortAsCoordinator(next)
			}
			if allVotedYes(next.Role.Participants) {
				return commitAsCoordinator(next)
			}
			return []Action{updateAction(next)}, nil

		case EventAlarm:
			if now.Sub(ctx.Role.VoteTimeoutStart) < voteTimeout {
				return nil, nil
			}
			return abortAsCoordinator(cloneContext(ctx))

		default:
			return nil, errUnknownContext("coordinator voting, unexpected event %v", event.Kind)
		}

	default:
		return nil, errUnknownContext("coordinator in terminal or unhandled state %v", ctx.Role.CoordinatorState)
	}
}

func allVotedYes(votes []ParticipantVote) bool {
	for _, v := range votes {
		if v.Vote == nil || !*v.Vote {
			return false
		}
	}
	return true
}

func commitAsCoordinator(ctx *Context) ([]Action, error) {
	ctx.Role.CoordinatorState = CoordinatorCommit
	commitEpoch := ctx.Epoch
	ctx.LastCommitEpoch = &commitEpoch
	actions := []Action{updateAction(ctx), notifyAction(Notification{Kind: NotifyCommit})}
	for _, p := range ctx.Role.Participants {
		actions = append(actions, sendAction(p.Process, Message{Kind: MessageCommit, Epoch: ctx.Epoch}))
	}
	return actions, nil
}

func abortAsCoordinator(ctx *Context) ([]Action, error) {
	ctx.Role.CoordinatorState = CoordinatorAbort
	actions := []Action{updateAction(ctx), notifyAction(Notification{Kind: NotifyAbort})}
	for _, p := range ctx.Role.Participants {
		actions = append(actions, sendAction(p.Process, Message{Kind: MessageAbort, Epoch: ctx.Epoch}))
	}
	return actions, nil
}

func transitionParticipant(ctx *Context, event Event, now time.Time, decisionTimeout time.Duration) ([]Action, error) {
	switch ctx.Role.ParticipantState {
	case ParticipantWaitingForVoteRequest:
		if event.Kind != EventVoteRequest {
			return nil, errUnknownContext("participant waiting for VoteRequest, got %v", event.Kind)
		}
		next := cloneContext(ctx)
		next.Role.ParticipantState = ParticipantWaitingForVote
		return []Action{updateAction(next), notifyAction(Notification{Kind: NotifyParticipantRequestForVote, Value: event.RequestValue})}, nil

	case ParticipantWaitingForVote:
		if event.Kind != EventVoteResponse || event.From != ctx.ThisProcess {
			return nil, errUnknownContext("participant waiting for its own vote, got %v", event.Kind)
		}
		next := cloneContext(ctx)
		next.Role.ParticipantState = ParticipantVoted
		vote := event.Vote
		next.Role.Vote = &vote
		next.Role.DecisionTimeoutStart = now
		return []Action{updateAction(next), sendAction(ctx.Coordinator, Message{Kind: MessageVoteResponse, Epoch: ctx.Epoch, Vote: vote})}, nil

	case ParticipantVoted:
		switch event.Kind {
		case EventCommit:
			next := cloneContext(ctx)
			next.Role.ParticipantState = ParticipantCommit
			commitEpoch := ctx.Epoch
			next.LastCommitEpoch = &commitEpoch
			return []Action{updateAction(next), notifyAction(Notification{Kind: NotifyCommit})}, nil

		case EventAbort:
			next := cloneContext(ctx)
			next.Role.ParticipantState = ParticipantAbort
			return []Action{updateAction(next), notifyAction(Notification{Kind: NotifyAbort})}, nil

		case EventAlarm:
			if now.Sub(ctx.Role.DecisionTimeoutStart) < decisionTimeout {
				return nil, nil
			}
			if ctx.Role.Vote != nil && *ctx.Role.Vote {
				// Voted Yes: no unilateral decision on our own timeout, the
				// coordinator may still be committing. Stay Voted and let
				// the caller re-arm the alarm.
				return nil, nil
			}
			next := cloneContext(ctx)
			next.Role.ParticipantState = ParticipantAbort
			return []Action{updateAction(next), notifyAction(Notification{Kind: NotifyAbort, Reason: "decision timeout"})}, nil

		default:
			return nil, errUnknownContext("participant voted, unexpected event %v", event.Kind)
		}

	default:
		return nil, errUnknownContext("participant in terminal or unhandled state %v", ctx.Role.ParticipantState)
	}
}
