package orchestrator

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/admin"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

// CircuitLoader is the read side the Orchestrator needs from
// internal/admin's backing store: the materialized circuit a
// admin.EventAccepted names.
type CircuitLoader interface {
	LoadCircuit(ctx context.Context, circuitID ids.CircuitID) (*model.Circuit, error)
}

// ServiceStore is the write side: persisting one lifecycle_services row
// per roster entry so the Lifecycle Executor picks them up, plus the read
// the Orchestrator needs to tell when a circuit's services are all done.
type ServiceStore interface {
	store.StoreCommandExecutor[pgx.Tx]
	AllServicesFinalized(ctx context.Context, circuitID ids.CircuitID) (bool, error)
}

// Waker is the subset of lifecycle.Executor the Orchestrator needs:
// nudging the executor to check for newly queued work. The executor has
// no poll loop of its own; it runs only when woken.
type Waker interface {
	WakeUpAll()
}

// Orchestrator subscribes to an admin.EventLog and, on every
// admin.EventAccepted, enqueues a lifecycle_services row (PendingCommand
// Prepare) for each service in the newly materialized circuit's roster —
// the connective tissue runnable.rs's ServiceOrchestrator::run otherwise
// bundles into one monolithic start-up, split here because Admin and
// Lifecycle are already independent modules. It also implements
// lifecycle.FinalizationObserver, the same connective role in the other
// direction: when the Executor reports a service Finalized, the
// Orchestrator checks whether that was the last one on its circuit and,
// if so, publishes admin.EventCircuitReady (§4.6 step 6).
type Orchestrator struct {
	loader CircuitLoader
	store  ServiceStore
	waker  Waker
	events *admin.EventLog
	log    *logging.Logger
}

// NewOrchestrator builds an Orchestrator wired to loader, backing, waker,
// and the admin.EventLog it publishes EventCircuitReady to.
func NewOrchestrator(loader CircuitLoader, backing ServiceStore, waker Waker, events *admin.EventLog, log *logging.Logger) *Orchestrator {
	return &Orchestrator{loader: loader, store: backing, waker: waker, events: events, log: log.With("orchestrator")}
}

// ServiceFinalized implements lifecycle.FinalizationObserver: once fqid's
// circuit has every one of its services at ServiceStatusFinalized or
// later, publish admin.EventCircuitReady for it.
func (o *Orchestrator) ServiceFinalized(ctx context.Context, fqid ids.FullyQualifiedServiceID) {
	ready, err := o.store.AllServicesFinalized(ctx, fqid.CircuitID())
	if err != nil {
		o.log.Warnf("unable to check circuit %s for readiness: %v", fqid.CircuitID(), err)
		return
	}
	if ready {
		o.events.Publish(admin.Event{Kind: admin.EventCircuitReady, CircuitID: fqid.CircuitID()})
	}
}

// Run subscribes to events and processes admin.EventAccepted entries
// until events closes or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, events <-chan admin.Event) {
	go func() {
		for {
			select {
			case e, ok := <-events:
				if !ok {
					return
				}
				if e.Kind == admin.EventAccepted {
					o.onAccepted(ctx, e.CircuitID)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (o *Orchestrator) onAccepted(ctx context.Context, circuitID ids.CircuitID) {
	circuit, err := o.loader.LoadCircuit(ctx, circuitID)
	if err != nil {
		o.log.Warnf("unable to load accepted circuit %s: %v", circuitID, err)
		return
	}

	var commands []store.StoreCommand[pgx.Tx]
	for _, entry := range circuit.Roster {
		fqid, err := ids.NewFullyQualifiedServiceID(circuitID, entry.ServiceID)
		if err != nil {
			o.log.Warnf("unable to build service id for %s in circuit %s: %v", entry.ServiceID, circuitID, err)
			continue
		}
		svc := model.NewService(fqid, entry.ServiceType, entry.Arguments)
		commands = append(commands, store.SaveLifecycleServiceCommand(fqid, svc))
	}
	if len(commands) == 0 {
		return
	}
	if err := o.store.ExecuteCommands(ctx, commands); err != nil {
		o.log.Warnf("unable to enqueue lifecycle services for circuit %s: %v", circuitID, err)
		return
	}
	o.waker.WakeUpAll()
}
