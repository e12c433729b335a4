package admin

import (
	"sync"

	"github.com/splinter-platform/splinter/internal/ids"
)

// EventKind names what happened to a proposal.
type EventKind string

const (
	EventProposed    EventKind = "Proposed"
	EventVoted       EventKind = "Voted"
	EventAccepted    EventKind = "Accepted"
	EventRejected    EventKind = "Rejected"
	EventDisbanded   EventKind = "Disbanded"
	EventAbandoned   EventKind = "Abandoned"

	// EventCircuitReady fires once every service a materialized circuit
	// owns has reported ServiceStatusFinalized (§4.6 step 6), not when the
	// circuit is merely Accepted — Accepted only means the roster is
	// agreed on, the services behind it still have to come up.
	EventCircuitReady EventKind = "CircuitReady"
)

// Event is one entry in the admin service's subscribable log (§4.6).
type Event struct {
	Kind      EventKind
	CircuitID ids.CircuitID
	Detail    string
}

// EventLog is an in-memory, fan-out subscription point for admin Events.
// An event is dropped for any subscriber whose channel is full rather
// than blocking the publisher; the subscriber itself stays registered.
// Event delivery here is best-effort notification, not a durable queue.
type EventLog struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewEventLog builds an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener, returning the channel to read from
// and an unsubscribe function.
func (l *EventLog) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[ch]; ok {
			delete(l.subs, ch)
			close(ch)
		}
	}
}

// Publish fans e out to every current subscriber, dropping it for any
// subscriber whose buffer is full.
func (l *EventLog) Publish(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
