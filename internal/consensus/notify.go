package consensus

import (
	"context"
	"strconv"
	"time"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

// EventStore records the notify-as-event trail a CommandNotifyObserver
// appends to for every Notification it handles, independent of whatever
// commit entry bookkeeping it also does.
type EventStore interface {
	AddEvent(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, kind NotificationKind, payload []byte) error
}

// CommitEntryStore is the commit-entry half of the notify observer's
// persistence boundary.
type CommitEntryStore interface {
	AddCommitEntry(ctx context.Context, serviceID ids.FullyQualifiedServiceID, entry CommitEntry) error
	GetLastCommitEntry(ctx context.Context, serviceID ids.FullyQualifiedServiceID) (*CommitEntry, error)
	UpdateCommitEntry(ctx context.Context, serviceID ids.FullyQualifiedServiceID, entry CommitEntry) error
}

// CommandNotifyObserver is the default NotifyObserver: every Notification
// becomes one or more store writes, never a direct side effect. This
// mirrors the original implementation's notify_observer, which never
// calls application code directly — it only ever calls
// EventStore.AddEvent and CommitEntryStore's AddCommitEntry/
// UpdateCommitEntry, leaving delivery to whatever later reads those rows.
type CommandNotifyObserver struct {
	events  EventStore
	commits CommitEntryStore
	now     func() time.Time
}

// NewCommandNotifyObserver builds a CommandNotifyObserver over the given
// event and commit-entry stores.
func NewCommandNotifyObserver(events EventStore, commits CommitEntryStore) *CommandNotifyObserver {
	return &CommandNotifyObserver{events: events, commits: commits, now: time.Now}
}

// Notify implements NotifyObserver.
func (o *CommandNotifyObserver) Notify(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, n Notification) error {
	switch n.Kind {
	case NotifyRequestForStart:
		// Generate a new value to agree on and record both the synthetic
		// Start event and the commit entry that will track its decision.
		value := []byte(strconv.FormatInt(o.now().Unix(), 10))
		if err := o.events.AddEvent(ctx, serviceID, epoch, n.Kind, value); err != nil {
			return err
		}
		return o.commits.AddCommitEntry(ctx, serviceID, CommitEntry{Epoch: epoch, Value: value})

	case NotifyCoordinatorRequestForVote:
		// Coordinators always vote yes on their own proposal; no commit
		// entry of its own, the value is already tracked by RequestForStart.
		return o.events.AddEvent(ctx, serviceID, epoch, n.Kind, n.Value)

	case NotifyParticipantRequestForVote:
		// Participants always vote yes too, and the value they're voting
		// on needs its own commit entry.
		if err := o.events.AddEvent(ctx, serviceID, epoch, n.Kind, n.Value); err != nil {
			return err
		}
		return o.commits.AddCommitEntry(ctx, serviceID, CommitEntry{Epoch: epoch, Value: n.Value})

	case NotifyCommit:
		return o.resolve(ctx, serviceID, epoch, CommitDecisionCommit)

	case NotifyAbort:
		return o.resolve(ctx, serviceID, epoch, CommitDecisionAbort)

	default:
		// NotifyMessageDropped: nothing to persist.
		return nil
	}
}

// resolve updates the last commit entry for serviceID in place with the
// given decision, mirroring get_last_commit_entry + into_builder().
func (o *CommandNotifyObserver) resolve(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, decision CommitDecision) error {
	entry, err := o.commits.GetLastCommitEntry(ctx, serviceID)
	if err != nil {
		return err
	}
	if entry == nil {
		return errs.Newf(errs.KindConstraintNotFound, "received %s for unknown commit entry: epoch %d", decision, epoch)
	}
	entry.Decision = &decision
	return o.commits.UpdateCommitEntry(ctx, serviceID, *entry)
}
