package lifecycle

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

type fakeServiceStore struct {
	rows      []store.LifecycleServiceRow
	execCalls [][]store.StoreCommand[pgx.Tx]
}

func (f *fakeServiceStore) ListPendingLifecycleServices(ctx context.Context, serviceType string) ([]store.LifecycleServiceRow, error) {
	if serviceType == "" {
		return f.rows, nil
	}
	var out []store.LifecycleServiceRow
	for _, r := range f.rows {
		if r.ServiceType == serviceType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeServiceStore) ExecuteCommands(ctx context.Context, commands []store.StoreCommand[pgx.Tx]) error {
	f.execCalls = append(f.execCalls, commands)
	return nil
}

type fakeLifecycle struct{ prepareCalled, finalizeCalled int }

func (l *fakeLifecycle) CommandToPrepare(fqid ids.FullyQualifiedServiceID, args []model.ServiceArgument) (store.StoreCommand[pgx.Tx], error) {
	l.prepareCalled++
	return store.CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error { return nil }), nil
}

func (l *fakeLifecycle) CommandToFinalize(fqid ids.FullyQualifiedServiceID) (store.StoreCommand[pgx.Tx], error) {
	l.finalizeCalled++
	return store.CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error { return nil }), nil
}

func (l *fakeLifecycle) CommandToRetire(fqid ids.FullyQualifiedServiceID) (store.StoreCommand[pgx.Tx], error) {
	return store.CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error { return nil }), nil
}

func (l *fakeLifecycle) CommandToPurge(fqid ids.FullyQualifiedServiceID) (store.StoreCommand[pgx.Tx], error) {
	return store.CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error { return nil }), nil
}

func testLogger() *logging.Logger { return logging.New("test", logging.LevelError, io.Discard) }

func row(circuitID, serviceID, serviceType string, command model.LifecycleCommand) store.LifecycleServiceRow {
	fqid, err := ids.NewFullyQualifiedServiceID(ids.CircuitID(circuitID), ids.ServiceID(serviceID))
	if err != nil {
		panic(err)
	}
	return store.LifecycleServiceRow{
		ServiceFQID:   fqid.String(),
		ServiceType:   serviceType,
		ArgumentsBlob: []byte("[]"),
		Command:       string(command),
		Status:        string(model.LifecycleNew),
	}
}

func TestWakeUpAllHandlesEveryPendingService(t *testing.T) {
	fs := &fakeServiceStore{rows: []store.LifecycleServiceRow{
		row("circuit-1", "svc-a", "echo", model.CommandPrepare),
		row("circuit-1", "svc-b", "echo", model.CommandFinalize),
	}}
	lc := &fakeLifecycle{}
	ex := NewExecutor(Map{"echo": lc}, fs, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ex.Start(ctx)
	defer ex.Shutdown()

	ex.WakeUpAll()
	waitForExecCalls(t, fs, 2)

	if lc.prepareCalled != 1 || lc.finalizeCalled != 1 {
		t.Fatalf("expected 1 prepare + 1 finalize, got prepare=%d finalize=%d", lc.prepareCalled, lc.finalizeCalled)
	}
	for _, commands := range fs.execCalls {
		if len(commands) != 2 {
			t.Fatalf("expected 2 commands (lifecycle + terminal flip) per handled service, got %d", len(commands))
		}
	}
}

func TestWakeUpFiltersByServiceType(t *testing.T) {
	fs := &fakeServiceStore{rows: []store.LifecycleServiceRow{
		row("circuit-1", "svc-a", "echo", model.CommandPrepare),
		row("circuit-1", "svc-b", "scabbard", model.CommandPrepare),
	}}
	echoLC := &fakeLifecycle{}
	scabbardLC := &fakeLifecycle{}
	ex := NewExecutor(Map{"echo": echoLC, "scabbard": scabbardLC}, fs, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ex.Start(ctx)
	defer ex.Shutdown()

	ex.WakeUp(WakeUpMessage("echo", nil))
	waitForExecCalls(t, fs, 1)

	if echoLC.prepareCalled != 1 {
		t.Fatalf("expected echo lifecycle invoked once, got %d", echoLC.prepareCalled)
	}
	if scabbardLC.prepareCalled != 0 {
		t.Fatalf("expected scabbard lifecycle untouched, got %d", scabbardLC.prepareCalled)
	}
}

func TestUnregisteredServiceTypeIsSkippedNotFatal(t *testing.T) {
	fs := &fakeServiceStore{rows: []store.LifecycleServiceRow{
		row("circuit-1", "svc-a", "unknown-type", model.CommandPrepare),
	}}
	ex := NewExecutor(Map{}, fs, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ex.Start(ctx)

	ex.WakeUpAll()
	ex.Shutdown()

	if len(fs.execCalls) != 0 {
		t.Fatalf("expected no commands executed for an unregistered service type, got %d", len(fs.execCalls))
	}
}

func waitForExecCalls(t *testing.T, fs *fakeServiceStore, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(fs.execCalls) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d exec calls, got %d", n, len(fs.execCalls))
}
