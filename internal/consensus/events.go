package consensus

// EventKind tags an incoming 2PC event (§3 Events, "Start | VoteRequest |
// VoteResponse | Commit | Abort | Alarm" — explicit kind tag, not an
// untagged union).
type EventKind int

const (
	EventStart EventKind = iota
	EventVoteRequest
	EventVoteResponse
	EventCommit
	EventAbort
	EventAlarm
	EventDeliver
)

// Event is one input to the transition function. Only the fields that
// apply to Kind are meaningful.
type Event struct {
	Kind EventKind

	// EventStart: the value the coordinator is proposing.
	Value []byte

	// EventVoteRequest: the value the coordinator sent to request a vote.
	RequestValue []byte

	// EventVoteResponse, EventDeliver (vote message): who voted and how.
	From Process
	Vote bool

	// EventDeliver: a message delivered off the wire, already decoded at
	// the dispatch layer into one of the above shapes by the caller; Kind
	// is still one of the concrete kinds above, EventDeliver is reserved
	// for messages the dispatcher could not classify and is surfaced only
	// as a MessageDropped notification.
	RawMessageType string
}

// MessageKind tags a 2PC wire message (§3).
type MessageKind int

const (
	MessageVoteRequest MessageKind = iota
	MessageVoteResponse
	MessageCommit
	MessageAbort
)

// Message is one 2PC protocol message, addressed to a single Process by
// the ActionRunner via the dispatcher's MessageSender.
type Message struct {
	Kind  MessageKind
	Epoch uint64
	Value []byte
	Vote  bool
}

// NotificationKind tags an application-facing notification (§3).
type NotificationKind int

const (
	NotifyRequestForStart NotificationKind = iota
	NotifyCoordinatorRequestForVote
	NotifyParticipantRequestForVote
	NotifyCommit
	NotifyAbort
	NotifyMessageDropped
)

// Notification is an Action payload meant for the owning service, not the
// network — routed by the ActionRunner's CommandNotifyObserver into store
// writes (§4.7 "Notify").
type Notification struct {
	Kind   NotificationKind
	Value  []byte
	Reason string
}
