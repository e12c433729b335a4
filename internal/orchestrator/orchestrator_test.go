package orchestrator

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/admin"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

type fakeCircuitLoader struct {
	circuits map[ids.CircuitID]*model.Circuit
}

func (f *fakeCircuitLoader) LoadCircuit(ctx context.Context, circuitID ids.CircuitID) (*model.Circuit, error) {
	c, ok := f.circuits[circuitID]
	if !ok {
		return nil, errs.Newf(errs.KindConstraintNotFound, "no circuit %q", circuitID)
	}
	return c, nil
}

type fakeServiceStore struct {
	mu       sync.Mutex
	commands [][]store.StoreCommand[pgx.Tx]
	ready    map[ids.CircuitID]bool
}

func (f *fakeServiceStore) ExecuteCommands(ctx context.Context, commands []store.StoreCommand[pgx.Tx]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, commands)
	return nil
}

func (f *fakeServiceStore) AllServicesFinalized(ctx context.Context, circuitID ids.CircuitID) (bool, error) {
	return f.ready[circuitID], nil
}

type fakeWaker struct {
	mu     sync.Mutex
	woken  int
}

func (w *fakeWaker) WakeUpAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.woken++
}

func testLogger() *logging.Logger { return logging.New("test", logging.LevelError, io.Discard) }

func TestOrchestratorEnqueuesLifecycleServicesOnAccepted(t *testing.T) {
	circuitID := ids.CircuitID("circuit-1")
	loader := &fakeCircuitLoader{circuits: map[ids.CircuitID]*model.Circuit{
		circuitID: {
			CircuitID: circuitID,
			Roster: []model.RosterEntry{
				{ServiceID: "svc-a", ServiceType: "echo", OwningNode: "node-a"},
				{ServiceID: "svc-b", ServiceType: "echo", OwningNode: "node-b"},
			},
		},
	}}
	backing := &fakeServiceStore{}
	waker := &fakeWaker{}
	o := NewOrchestrator(loader, backing, waker, admin.NewEventLog(), testLogger())

	events := make(chan admin.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Run(ctx, events)
	events <- admin.Event{Kind: admin.EventAccepted, CircuitID: circuitID}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		backing.mu.Lock()
		n := len(backing.commands)
		backing.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	backing.mu.Lock()
	defer backing.mu.Unlock()
	if len(backing.commands) != 1 || len(backing.commands[0]) != 2 {
		t.Fatalf("expected one batch of 2 lifecycle_services commands, got %v", backing.commands)
	}
	waker.mu.Lock()
	defer waker.mu.Unlock()
	if waker.woken != 1 {
		t.Fatalf("expected the lifecycle executor woken once, got %d", waker.woken)
	}
}

func TestOrchestratorIgnoresNonAcceptedEvents(t *testing.T) {
	loader := &fakeCircuitLoader{circuits: map[ids.CircuitID]*model.Circuit{}}
	backing := &fakeServiceStore{}
	waker := &fakeWaker{}
	o := NewOrchestrator(loader, backing, waker, admin.NewEventLog(), testLogger())

	events := make(chan admin.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Run(ctx, events)
	events <- admin.Event{Kind: admin.EventRejected, CircuitID: "circuit-2"}

	time.Sleep(30 * time.Millisecond)
	backing.mu.Lock()
	defer backing.mu.Unlock()
	if len(backing.commands) != 0 {
		t.Fatalf("expected no commands for a non-accepted event, got %v", backing.commands)
	}
}

func TestServiceFinalizedPublishesCircuitReadyOnceAllDone(t *testing.T) {
	circuitID := ids.CircuitID("circuit-5")
	backing := &fakeServiceStore{ready: map[ids.CircuitID]bool{circuitID: true}}
	events := admin.NewEventLog()
	o := NewOrchestrator(&fakeCircuitLoader{}, backing, &fakeWaker{}, events, testLogger())

	sub, unsubscribe := events.Subscribe(4)
	defer unsubscribe()

	fqid, err := ids.NewFullyQualifiedServiceID(circuitID, "svc-a")
	if err != nil {
		t.Fatalf("NewFullyQualifiedServiceID: %v", err)
	}
	o.ServiceFinalized(context.Background(), fqid)

	select {
	case e := <-sub:
		if e.Kind != admin.EventCircuitReady || e.CircuitID != circuitID {
			t.Fatalf("expected CircuitReady for %s, got %+v", circuitID, e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CircuitReady")
	}
}

func TestServiceFinalizedStaysQuietUntilEveryServiceIsDone(t *testing.T) {
	circuitID := ids.CircuitID("circuit-6")
	backing := &fakeServiceStore{ready: map[ids.CircuitID]bool{}}
	events := admin.NewEventLog()
	o := NewOrchestrator(&fakeCircuitLoader{}, backing, &fakeWaker{}, events, testLogger())

	sub, unsubscribe := events.Subscribe(4)
	defer unsubscribe()

	fqid, err := ids.NewFullyQualifiedServiceID(circuitID, "svc-a")
	if err != nil {
		t.Fatalf("NewFullyQualifiedServiceID: %v", err)
	}
	o.ServiceFinalized(context.Background(), fqid)

	select {
	case e := <-sub:
		t.Fatalf("expected no event while the circuit is not fully finalized, got %+v", e)
	case <-time.After(30 * time.Millisecond):
	}
}
