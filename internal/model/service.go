package model

import "github.com/splinter-platform/splinter/internal/ids"

// LifecycleStatus is the coarse status the Lifecycle Executor polls on
// (§3 Lifecycles, §4.8). Distinct from the finer-grained ServiceStatus
// below: LifecycleStatus is New/Complete per queued command, while
// ServiceStatus is the service's overall position in New → Prepared →
// Finalized → Retired → Purged.
type LifecycleStatus string

const (
	LifecycleNew      LifecycleStatus = "New"
	LifecycleComplete LifecycleStatus = "Complete"
)

// LifecycleCommand is a queued instruction to move a service forward.
type LifecycleCommand string

const (
	CommandPrepare  LifecycleCommand = "Prepare"
	CommandFinalize LifecycleCommand = "Finalize"
	CommandRetire   LifecycleCommand = "Retire"
	CommandPurge    LifecycleCommand = "Purge"
)

// ServiceStatus is a service's overall lifecycle position.
type ServiceStatus string

const (
	ServiceStatusNew       ServiceStatus = "New"
	ServiceStatusPrepared  ServiceStatus = "Prepared"
	ServiceStatusFinalized ServiceStatus = "Finalized"
	ServiceStatusRetired   ServiceStatus = "Retired"
	ServiceStatusPurged    ServiceStatus = "Purged"
)

// nextServiceStatus defines the single legal forward transition for each
// status; any other target is a programmer error caught by Service.Advance.
var nextServiceStatus = map[ServiceStatus]ServiceStatus{
	ServiceStatusNew:       ServiceStatusPrepared,
	ServiceStatusPrepared:  ServiceStatusFinalized,
	ServiceStatusFinalized: ServiceStatusRetired,
	ServiceStatusRetired:   ServiceStatusPurged,
}

// commandForStatus names which command drives the transition out of a
// given status.
var commandForStatus = map[ServiceStatus]LifecycleCommand{
	ServiceStatusNew:       CommandPrepare,
	ServiceStatusPrepared:  CommandFinalize,
	ServiceStatusFinalized: CommandRetire,
	ServiceStatusRetired:   CommandPurge,
}

// Service is a single node's instance of a circuit service, identified by
// a fully qualified service id (§3 "Service").
type Service struct {
	ServiceID ids.FullyQualifiedServiceID
	ServiceType string
	Arguments []ServiceArgument

	Status          ServiceStatus
	PendingCommand  LifecycleCommand
	LifecycleStatus LifecycleStatus
}

// NewService creates a freshly materialized service, queued for Prepare.
func NewService(serviceID ids.FullyQualifiedServiceID, serviceType string, args []ServiceArgument) *Service {
	return &Service{
		ServiceID:       serviceID,
		ServiceType:     serviceType,
		Arguments:       args,
		Status:          ServiceStatusNew,
		PendingCommand:  CommandPrepare,
		LifecycleStatus: LifecycleNew,
	}
}

// Advance moves the service to the next status in its fixed sequence,
// queuing the next command (or leaving it purged with no further
// command). A row never transitions Complete → New, and Advance never
// revisits a status already passed (§8 invariant).
func (s *Service) Advance() error {
	next, ok := nextServiceStatus[s.Status]
	if !ok {
		return newValidationError("service %s is already at a terminal status %s", s.ServiceID, s.Status)
	}
	s.Status = next
	if cmd, ok := commandForStatus[next]; ok {
		s.PendingCommand = cmd
		s.LifecycleStatus = LifecycleNew
	} else {
		s.PendingCommand = ""
		s.LifecycleStatus = LifecycleComplete
	}
	return nil
}

// MarkComplete sets the row's LifecycleStatus to Complete without
// advancing ServiceStatus or clearing PendingCommand. Nothing calls it:
// the Lifecycle Executor's CompleteService calls Advance instead.
func (s *Service) MarkComplete() {
	s.LifecycleStatus = LifecycleComplete
}
