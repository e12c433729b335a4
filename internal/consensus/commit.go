package consensus

// CommitDecision is the outcome recorded on a CommitEntry once the epoch
// it tracks resolves. A nil Decision on a CommitEntry means the value is
// still pending agreement.
type CommitDecision string

const (
	CommitDecisionCommit CommitDecision = "Commit"
	CommitDecisionAbort  CommitDecision = "Abort"
)

// CommitEntry is the durable record of the value a Notify action handed
// to the owning service to reach agreement on, grounded on the notify
// observer's commit entry (original_source consensus_action_runner/
// notify_observer/command.rs): RequestForStart and ParticipantRequestForVote
// create one per epoch with Decision unset; Commit/Abort later update the
// existing entry in place rather than inserting a new row.
type CommitEntry struct {
	Epoch    uint64
	Value    []byte
	Decision *CommitDecision
}
