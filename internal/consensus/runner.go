package consensus

import (
	"context"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
)

// PersistedAction is an Action after it has been assigned a durable,
// monotonically increasing position within its (service, epoch) — the
// unit the ActionRunner replays in order (§8).
type PersistedAction struct {
	Position uint64
	Action   Action
}

// ActionStore is the persistence boundary the ActionRunner depends on.
// internal/store's consensus action table implements this; tests can
// supply an in-memory fake without pulling in pgx or mongo.
type ActionStore interface {
	// PersistActions durably appends actions for (serviceID, epoch) and
	// returns them tagged with their assigned positions, in order. Must
	// be called, and succeed, before any action is executed (§4.7
	// "persisted before executed").
	PersistActions(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, actions []Action) ([]PersistedAction, error)

	// MarkExecuted records that the action at position has run, so a
	// crash-restart replay can skip it (§8 idempotent replay).
	MarkExecuted(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, position uint64) error

	// UnexecutedActions returns persisted actions at or after resumeFrom
	// that have not yet been marked executed, in position order.
	UnexecutedActions(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, resumeFrom uint64) ([]PersistedAction, error)
}

// MessageSender delivers a 2PC wire message to a single process. Backed
// by the Message Dispatcher's outbound path (§4.5); a send failure is
// reported, never retried inside the runner — retry is the caller's
// alarm-driven responsibility (§4.7 vote/decision timeouts).
type MessageSender interface {
	SendMessage(ctx context.Context, serviceID ids.FullyQualifiedServiceID, to Process, msg Message) error
}

// NotifyObserver turns a Notification into whatever the owning service
// needs to see next — normally further store writes (CommandNotifyObserver).
type NotifyObserver interface {
	Notify(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, n Notification) error
}

// ActionRunner persists actions before executing them, and replays any
// left unexecuted after a restart (§4.7, §8).
type ActionRunner struct {
	store   ActionStore
	sender  MessageSender
	observe NotifyObserver
	log     *logging.Logger
}

// NewActionRunner builds an ActionRunner over the given persistence,
// message delivery, and notification backends.
func NewActionRunner(store ActionStore, sender MessageSender, observe NotifyObserver, log *logging.Logger) *ActionRunner {
	return &ActionRunner{store: store, sender: sender, observe: observe, log: log.With("consensus.runner")}
}

// Run persists actions, then executes each one in order. A failure to
// execute one action (e.g. a send error) is logged and does not block
// later actions. A failed action is left unmarked, so a later Replay
// runs it again; Run itself does not retry it.
func (r *ActionRunner) Run(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, actions []Action) error {
	persisted, err := r.store.PersistActions(ctx, serviceID, epoch, actions)
	if err != nil {
		return err
	}
	for _, pa := range persisted {
		r.execute(ctx, serviceID, epoch, pa)
	}
	return nil
}

// Replay re-executes any actions persisted but not marked executed for
// (serviceID, epoch) at or after resumeFrom — used on process restart so
// an action runner crash between persist and execute cannot lose work.
func (r *ActionRunner) Replay(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, resumeFrom uint64) error {
	pending, err := r.store.UnexecutedActions(ctx, serviceID, epoch, resumeFrom)
	if err != nil {
		return err
	}
	for _, pa := range pending {
		r.execute(ctx, serviceID, epoch, pa)
	}
	return nil
}

func (r *ActionRunner) execute(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, pa PersistedAction) {
	var err error
	switch pa.Action.Kind {
	case ActionUpdate:
		// The context row itself was already written as part of
		// PersistActions; nothing further to execute.
	case ActionSendMessage:
		err = r.sender.SendMessage(ctx, serviceID, pa.Action.To, pa.Action.Message)
	case ActionNotify:
		err = r.observe.Notify(ctx, serviceID, epoch, pa.Action.Notification)
	}
	if err != nil {
		r.log.Warnf("action %d for %s epoch %d failed: %v", pa.Position, serviceID, epoch, err)
		return
	}
	if markErr := r.store.MarkExecuted(ctx, serviceID, epoch, pa.Position); markErr != nil {
		r.log.Warnf("mark executed %d for %s epoch %d: %v", pa.Position, serviceID, epoch, markErr)
	}
}
