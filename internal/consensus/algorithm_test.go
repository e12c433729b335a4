package consensus

import (
	"testing"
	"time"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

func testServiceID(t *testing.T) ids.FullyQualifiedServiceID {
	t.Helper()
	fqsid, err := ids.NewFullyQualifiedServiceID("circuit-1", "svc-a")
	if err != nil {
		t.Fatalf("NewFullyQualifiedServiceID: %v", err)
	}
	return fqsid
}

func TestCoordinatorHappyPath(t *testing.T) {
	sid := testServiceID(t)
	now := time.Unix(1000, 0)
	ctx, err := NewCoordinatorContext(sid, "node-1", 1, nil, []Process{"node-2", "node-3"})
	if err != nil {
		t.Fatalf("NewCoordinatorContext: %v", err)
	}

	actions, err := Transition(ctx, Event{Kind: EventStart, Value: []byte("v")}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("Start transition: %v", err)
	}
	if len(actions) != 4 { // update + notify + 2 sends
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}
	voting := actions[0].NewContext
	if voting.Role.CoordinatorState != CoordinatorVoting {
		t.Fatalf("expected Voting, got %v", voting.Role.CoordinatorState)
	}

	actions, err = Transition(voting, Event{Kind: EventVoteResponse, From: "node-2", Vote: true}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected only an update after a partial vote, got %d", len(actions))
	}
	partial := actions[0].NewContext

	actions, err = Transition(partial, Event{Kind: EventVoteResponse, From: "node-3", Vote: true}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	committed := actions[0].NewContext
	if committed.Role.CoordinatorState != CoordinatorCommit {
		t.Fatalf("expected Commit after unanimous yes votes, got %v", committed.Role.CoordinatorState)
	}
	if committed.LastCommitEpoch == nil || *committed.LastCommitEpoch != 1 {
		t.Fatalf("expected LastCommitEpoch=1, got %v", committed.LastCommitEpoch)
	}
	sendCount := 0
	for _, a := range actions {
		if a.Kind == ActionSendMessage {
			if a.Message.Kind != MessageCommit {
				t.Fatalf("expected commit messages, got %v", a.Message.Kind)
			}
			sendCount++
		}
	}
	if sendCount != 2 {
		t.Fatalf("expected 2 commit messages, got %d", sendCount)
	}
}

func TestCoordinatorAbortsOnRejectVote(t *testing.T) {
	sid := testServiceID(t)
	now := time.Unix(1000, 0)
	ctx, _ := NewCoordinatorContext(sid, "node-1", 1, nil, []Process{"node-2", "node-3"})
	actions, err := Transition(ctx, Event{Kind: EventStart, Value: []byte("v")}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	voting := actions[0].NewContext

	actions, err = Transition(voting, Event{Kind: EventVoteResponse, From: "node-2", Vote: false}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("reject vote: %v", err)
	}
	aborted := actions[0].NewContext
	if aborted.Role.CoordinatorState != CoordinatorAbort {
		t.Fatalf("expected Abort after a reject vote, got %v", aborted.Role.CoordinatorState)
	}
	if aborted.LastCommitEpoch != nil {
		t.Fatalf("an aborted epoch must not set LastCommitEpoch")
	}
}

func TestCoordinatorVoteTimeoutAborts(t *testing.T) {
	sid := testServiceID(t)
	start := time.Unix(1000, 0)
	ctx, _ := NewCoordinatorContext(sid, "node-1", 1, nil, []Process{"node-2"})
	actions, _ := Transition(ctx, Event{Kind: EventStart, Value: []byte("v")}, start, DefaultVoteTimeout, DefaultDecisionTimeout)
	voting := actions[0].NewContext

	before := start.Add(DefaultVoteTimeout - time.Second)
	actions, err := Transition(voting, Event{Kind: EventAlarm}, before, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("early alarm: %v", err)
	}
	if actions != nil {
		t.Fatalf("expected no actions before the vote timeout elapses, got %v", actions)
	}

	after := start.Add(DefaultVoteTimeout + time.Second)
	actions, err = Transition(voting, Event{Kind: EventAlarm}, after, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("late alarm: %v", err)
	}
	if actions[0].NewContext.Role.CoordinatorState != CoordinatorAbort {
		t.Fatalf("expected Abort once the vote timeout elapses")
	}
}

func TestParticipantFollowsCoordinatorDecision(t *testing.T) {
	sid := testServiceID(t)
	now := time.Unix(2000, 0)
	ctx, err := NewParticipantContext(sid, "node-1", "node-2", 1, nil, []Process{"node-3"})
	if err != nil {
		t.Fatalf("NewParticipantContext: %v", err)
	}

	actions, err := Transition(ctx, Event{Kind: EventVoteRequest, RequestValue: []byte("v")}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("vote request: %v", err)
	}
	waitingForVote := actions[0].NewContext
	if waitingForVote.Role.ParticipantState != ParticipantWaitingForVote {
		t.Fatalf("expected WaitingForVote, got %v", waitingForVote.Role.ParticipantState)
	}

	actions, err = Transition(waitingForVote, Event{Kind: EventVoteResponse, From: "node-2", Vote: true}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	voted := actions[0].NewContext
	if voted.Role.ParticipantState != ParticipantVoted {
		t.Fatalf("expected Voted, got %v", voted.Role.ParticipantState)
	}
	if actions[1].Kind != ActionSendMessage || actions[1].To != "node-1" {
		t.Fatalf("expected the vote to be sent to the coordinator")
	}

	actions, err = Transition(voted, Event{Kind: EventCommit}, now, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	committed := actions[0].NewContext
	if committed.Role.ParticipantState != ParticipantCommit {
		t.Fatalf("expected Commit, got %v", committed.Role.ParticipantState)
	}
	if committed.LastCommitEpoch == nil || *committed.LastCommitEpoch != 1 {
		t.Fatalf("expected LastCommitEpoch=1")
	}
}

func TestParticipantDecisionTimeoutAbortsAfterNoVote(t *testing.T) {
	sid := testServiceID(t)
	start := time.Unix(2000, 0)
	ctx, _ := NewParticipantContext(sid, "node-1", "node-2", 1, nil, nil)
	actions, _ := Transition(ctx, Event{Kind: EventVoteRequest, RequestValue: []byte("v")}, start, DefaultVoteTimeout, DefaultDecisionTimeout)
	waitingForVote := actions[0].NewContext
	actions, _ = Transition(waitingForVote, Event{Kind: EventVoteResponse, From: "node-2", Vote: false}, start, DefaultVoteTimeout, DefaultDecisionTimeout)
	voted := actions[0].NewContext

	after := start.Add(DefaultDecisionTimeout + time.Second)
	actions, err := Transition(voted, Event{Kind: EventAlarm}, after, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("decision timeout alarm: %v", err)
	}
	if actions[0].NewContext.Role.ParticipantState != ParticipantAbort {
		t.Fatalf("expected Abort once the decision timeout elapses after a No vote")
	}
}

func TestParticipantDecisionTimeoutAfterYesVoteStaysVoted(t *testing.T) {
	sid := testServiceID(t)
	start := time.Unix(2000, 0)
	ctx, _ := NewParticipantContext(sid, "node-1", "node-2", 1, nil, nil)
	actions, _ := Transition(ctx, Event{Kind: EventVoteRequest, RequestValue: []byte("v")}, start, DefaultVoteTimeout, DefaultDecisionTimeout)
	waitingForVote := actions[0].NewContext
	actions, _ = Transition(waitingForVote, Event{Kind: EventVoteResponse, From: "node-2", Vote: true}, start, DefaultVoteTimeout, DefaultDecisionTimeout)
	voted := actions[0].NewContext

	after := start.Add(DefaultDecisionTimeout + time.Second)
	actions, err := Transition(voted, Event{Kind: EventAlarm}, after, DefaultVoteTimeout, DefaultDecisionTimeout)
	if err != nil {
		t.Fatalf("decision timeout alarm: %v", err)
	}
	if actions != nil {
		t.Fatalf("expected no unilateral decision after a Yes vote, got %v", actions)
	}
}

func TestTransitionRejectsTerminalContext(t *testing.T) {
	sid := testServiceID(t)
	ctx, _ := NewCoordinatorContext(sid, "node-1", 1, nil, nil)
	ctx.Role.CoordinatorState = CoordinatorCommit
	one := uint64(1)
	ctx.LastCommitEpoch = &one

	_, err := Transition(ctx, Event{Kind: EventStart}, time.Unix(0, 0), DefaultVoteTimeout, DefaultDecisionTimeout)
	if !errs.Is(err, errs.KindInvalidTransition) {
		t.Fatalf("expected KindInvalidTransition, got %v", err)
	}
}
