// Package lifecycle implements the Service Lifecycle Executor (§4.8): the
// single loop that walks every service through New -> Prepared ->
// Finalized -> Retired -> Purged by generating store commands per
// registered service type and running them through a StoreCommandExecutor.
package lifecycle

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

// Lifecycle generates the store command that carries a single service
// through one pending LifecycleCommand. Implemented once per service
// type (scabbard, the supplemented echo service, ...); the Executor looks
// one up by service type for every pending row it finds.
type Lifecycle interface {
	CommandToPrepare(fqid ids.FullyQualifiedServiceID, args []model.ServiceArgument) (store.StoreCommand[pgx.Tx], error)
	CommandToFinalize(fqid ids.FullyQualifiedServiceID) (store.StoreCommand[pgx.Tx], error)
	CommandToRetire(fqid ids.FullyQualifiedServiceID) (store.StoreCommand[pgx.Tx], error)
	CommandToPurge(fqid ids.FullyQualifiedServiceID) (store.StoreCommand[pgx.Tx], error)
}

// Map registers a Lifecycle per service type.
type Map map[string]Lifecycle

// ServiceStore is the persistence boundary the Executor depends on, kept
// as a local interface (rather than *store.PostgresStore) so tests can
// supply an in-memory fake, the same indirection internal/admin uses for
// ProposalStore.
type ServiceStore interface {
	store.StoreCommandExecutor[pgx.Tx]
	ListPendingLifecycleServices(ctx context.Context, serviceType string) ([]store.LifecycleServiceRow, error)
}

// FinalizationObserver is notified whenever a service the Executor drives
// reaches ServiceStatusFinalized, so a caller outside this package can
// watch for every service on a circuit finishing without lifecycle
// depending on admin directly — the same indirection Orchestrator already
// uses to bridge admin and lifecycle.
type FinalizationObserver interface {
	ServiceFinalized(ctx context.Context, fqid ids.FullyQualifiedServiceID)
}

// CommandGenerator produces the terminal status-flip command every
// handled service gets appended to its command batch (§4.8 step 3): advance
// the service to its next status and queue whatever command gets it
// further, or delete the row outright once a Purge has finished and
// there's no further pending command.
type CommandGenerator struct{}

// CompleteService builds the command that advances svc past the command
// it just ran, and reports svc's resulting status so the Executor can
// tell the caller when a service reaches ServiceStatusFinalized. A
// completed Purge deletes the row instead of advancing it to
// ServiceStatusPurged with nothing left to do.
func (CommandGenerator) CompleteService(fqid ids.FullyQualifiedServiceID, svc *model.Service, command model.LifecycleCommand) (store.StoreCommand[pgx.Tx], model.ServiceStatus) {
	if command == model.CommandPurge {
		return store.DeleteLifecycleServiceCommand(fqid), model.ServiceStatusPurged
	}
	completed := *svc
	_ = completed.Advance()
	return store.SaveLifecycleServiceCommand(fqid, &completed), completed.Status
}
