package lifecycle

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

// Executor is the single-threaded command loop that drives every
// registered service type's pending lifecycle commands, grounded on
// ExecutorThread's recv-loop shape with WakeUpAll/WakeUp/Shutdown cases
// folded into one Message type.
type Executor struct {
	recv       chan Message
	done       chan struct{}
	lifecycles Map
	store      ServiceStore
	generator  CommandGenerator
	observe    FinalizationObserver
	log        *logging.Logger
}

// NewExecutor builds an Executor over lifecycles (one Lifecycle per
// registered service type) and backing, unstarted.
func NewExecutor(lifecycles Map, backing ServiceStore, log *logging.Logger) *Executor {
	return &Executor{
		recv:       make(chan Message, 16),
		done:       make(chan struct{}),
		lifecycles: lifecycles,
		store:      backing,
		log:        log.With("lifecycle"),
	}
}

// SetObserver registers obs to be notified whenever a service this
// Executor drives reaches ServiceStatusFinalized. A setter rather than a
// constructor argument because the natural observer (the Orchestrator)
// itself depends on the Executor as its Waker, so the two can't be
// constructed in either order without one.
func (e *Executor) SetObserver(obs FinalizationObserver) { e.observe = obs }

// Start launches the loop goroutine. It runs until a Shutdown message is
// received or ctx is cancelled, the way localBatchSyncLogger's loop exits
// on ctx.Done().
func (e *Executor) Start(ctx context.Context) {
	go e.run(ctx)
}

func (e *Executor) run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case msg := <-e.recv:
			switch msg.Kind {
			case WakeUpAll:
				e.wakeUpAll(ctx)
			case WakeUp:
				e.wakeUp(ctx, msg.ServiceType, msg.ServiceID)
			case Shutdown:
				e.log.Debugf("lifecycle executor received shutdown")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// WakeUpAll queues a sweep of every service type's pending work.
func (e *Executor) WakeUpAll() { e.recv <- WakeUpAllMessage() }

// WakeUp queues a check of serviceType, optionally narrowed to one
// serviceID.
func (e *Executor) WakeUp(msg Message) { e.recv <- msg }

// Shutdown queues the stop message and blocks until the loop exits.
func (e *Executor) Shutdown() {
	e.recv <- ShutdownMessage()
	<-e.done
}

func (e *Executor) wakeUpAll(ctx context.Context) {
	rows, err := e.store.ListPendingLifecycleServices(ctx, "")
	if err != nil {
		e.log.Warnf("unable to check for pending services: %v", err)
		return
	}
	e.handle(ctx, rows)
}

func (e *Executor) wakeUp(ctx context.Context, serviceType string, serviceID *ids.FullyQualifiedServiceID) {
	rows, err := e.store.ListPendingLifecycleServices(ctx, serviceType)
	if err != nil {
		e.log.Warnf("unable to check for pending services: %v", err)
		return
	}
	if serviceID == nil {
		e.handle(ctx, rows)
		return
	}
	for _, row := range rows {
		if row.ServiceFQID == serviceID.String() {
			e.handle(ctx, []store.LifecycleServiceRow{row})
			return
		}
	}
	e.log.Warnf("no pending work found for service %s (service type %s)", serviceID, serviceType)
}

func (e *Executor) handle(ctx context.Context, rows []store.LifecycleServiceRow) {
	for _, row := range rows {
		fqid, svc, err := row.ToService()
		if err != nil {
			e.log.Warnf("unable to decode lifecycle service %s: %v", row.ServiceFQID, err)
			continue
		}
		lc, ok := e.lifecycles[svc.ServiceType]
		if !ok {
			e.log.Warnf("no lifecycle registered for service %s (service type %s)", fqid, svc.ServiceType)
			continue
		}

		var commands []store.StoreCommand[pgx.Tx]
		var commandErr error
		switch svc.PendingCommand {
		case model.CommandPrepare:
			commands, commandErr = single(lc.CommandToPrepare(fqid, svc.Arguments))
		case model.CommandFinalize:
			commands, commandErr = single(lc.CommandToFinalize(fqid))
		case model.CommandRetire:
			commands, commandErr = single(lc.CommandToRetire(fqid))
		case model.CommandPurge:
			commands, commandErr = single(lc.CommandToPurge(fqid))
		}
		if commandErr != nil {
			e.log.Warnf("unable to get lifecycle commands for service %s (service type %s): %v", fqid, svc.ServiceType, commandErr)
			continue
		}

		completeCmd, resultStatus := e.generator.CompleteService(fqid, svc, svc.PendingCommand)
		commands = append(commands, completeCmd)

		if err := e.store.ExecuteCommands(ctx, commands); err != nil {
			e.log.Warnf("unable to execute lifecycle commands for service %s (service type %s): %v", fqid, svc.ServiceType, err)
			continue
		}

		if resultStatus == model.ServiceStatusFinalized && e.observe != nil {
			e.observe.ServiceFinalized(ctx, fqid)
		}
	}
}

func single(cmd store.StoreCommand[pgx.Tx], err error) ([]store.StoreCommand[pgx.Tx], error) {
	if err != nil {
		return nil, err
	}
	return []store.StoreCommand[pgx.Tx]{cmd}, nil
}
