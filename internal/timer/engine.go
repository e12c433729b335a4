package timer

import (
	"context"
	"time"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/store"
)

// AlarmStore is the persistence boundary the Engine depends on, local to
// this package (the same indirection internal/admin and internal/lifecycle
// use) so tests run against a fake rather than a real Postgres pool.
type AlarmStore interface {
	ListDueAlarms(ctx context.Context, asOf time.Time) ([]store.AlarmRow, error)
	ServiceTypeFor(ctx context.Context, serviceFQID string) (string, error)
	ClearAlarm(ctx context.Context, serviceFQID, alarmType string) error
}

// Engine is the single wake loop polling for due alarms, grounded on the
// teacher's LogManager.localBatchSyncLogger select-loop shape (a
// time.After-driven tick instead of a dedicated timer per alarm) and
// ScabbardTimerHandlerFactory's per-fire handler construction.
type Engine struct {
	store      AlarmStore
	factories  FactoryMap
	tickPeriod time.Duration
	journal    *store.DurableLog
	log        *logging.Logger
	done       chan struct{}
	stop       chan struct{}
}

// NewEngine builds an Engine polling backing every tickPeriod. journal may
// be nil; when set, every fired alarm is appended to it before the
// Postgres-backed ClearAlarm call, as a local durability floor.
func NewEngine(backing AlarmStore, factories FactoryMap, tickPeriod time.Duration, journal *store.DurableLog, log *logging.Logger) *Engine {
	return &Engine{
		store:      backing,
		factories:  factories,
		tickPeriod: tickPeriod,
		journal:    journal,
		log:        log.With("timer"),
		done:       make(chan struct{}),
		stop:       make(chan struct{}),
	}
}

// Start launches the wake loop. It polls until Stop is called or ctx is
// cancelled.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
}

// Stop signals the loop to exit and blocks until it has.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	ticker := time.NewTicker(e.tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.wake(ctx)
		case <-e.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// wake handles every alarm due now, logging and continuing past any single
// alarm's failure so one bad alarm can't stall the whole engine.
func (e *Engine) wake(ctx context.Context) {
	due, err := e.store.ListDueAlarms(ctx, time.Now())
	if err != nil {
		e.log.Warnf("unable to list due alarms: %v", err)
		return
	}
	for _, alarm := range due {
		e.fire(ctx, alarm)
	}
}

func (e *Engine) fire(ctx context.Context, alarm store.AlarmRow) {
	fqid, err := ids.ParseFullyQualifiedServiceID(alarm.ServiceFQID)
	if err != nil {
		e.log.Warnf("unable to parse alarm service fqid %q: %v", alarm.ServiceFQID, err)
		return
	}
	serviceType, err := e.store.ServiceTypeFor(ctx, alarm.ServiceFQID)
	if err != nil {
		e.log.Warnf("unable to look up service type for alarm %s/%s: %v", fqid, alarm.AlarmType, err)
		return
	}
	factory, ok := e.factories[serviceType]
	if !ok {
		e.log.Warnf("no timer handler factory registered for service type %s", serviceType)
		return
	}
	handler, err := factory.NewHandler()
	if err != nil {
		e.log.Warnf("unable to build timer handler for service type %s: %v", serviceType, err)
		return
	}
	if err := handler.HandleAlarm(ctx, fqid, alarm.AlarmType); err != nil {
		e.log.Warnf("alarm handler failed for %s/%s: %v", fqid, alarm.AlarmType, err)
		return
	}
	if e.journal != nil {
		e.journal.Append("alarm_fired", []byte(alarm.ServiceFQID+":"+alarm.AlarmType))
		if err := e.journal.Flush(); err != nil {
			e.log.Warnf("unable to flush alarm journal for %s/%s: %v", fqid, alarm.AlarmType, err)
		}
	}
	if err := e.store.ClearAlarm(ctx, alarm.ServiceFQID, alarm.AlarmType); err != nil {
		e.log.Warnf("unable to clear alarm %s/%s: %v", fqid, alarm.AlarmType, err)
	}
}
