package timer

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/store"
)

type fakeAlarmStore struct {
	mu           sync.Mutex
	due          []store.AlarmRow
	serviceTypes map[string]string
	cleared      []string
}

func (f *fakeAlarmStore) ListDueAlarms(ctx context.Context, asOf time.Time) ([]store.AlarmRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.AlarmRow, len(f.due))
	copy(out, f.due)
	return out, nil
}

func (f *fakeAlarmStore) ServiceTypeFor(ctx context.Context, serviceFQID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serviceTypes[serviceFQID], nil
}

func (f *fakeAlarmStore) ClearAlarm(ctx context.Context, serviceFQID, alarmType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, serviceFQID+"/"+alarmType)
	var remaining []store.AlarmRow
	for _, a := range f.due {
		if a.ServiceFQID == serviceFQID && a.AlarmType == alarmType {
			continue
		}
		remaining = append(remaining, a)
	}
	f.due = remaining
	return nil
}

type fakeHandler struct {
	mu      sync.Mutex
	fired   []string
	failNxt bool
}

func (h *fakeHandler) HandleAlarm(ctx context.Context, serviceID ids.FullyQualifiedServiceID, alarmType string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failNxt {
		h.failNxt = false
		return errTest
	}
	h.fired = append(h.fired, serviceID.String()+"/"+alarmType)
	return nil
}

var errTest = &testErr{}

type testErr struct{}

func (*testErr) Error() string { return "handler failed" }

type fakeFactory struct{ handler *fakeHandler }

func (f *fakeFactory) NewHandler() (Handler, error) { return f.handler, nil }

func testLogger() *logging.Logger { return logging.New("test", logging.LevelError, io.Discard) }

func TestEngineFiresDueAlarmAndClearsIt(t *testing.T) {
	fqid, _ := ids.NewFullyQualifiedServiceID("circuit-1", "svc-a")
	fs := &fakeAlarmStore{
		due:          []store.AlarmRow{{ServiceFQID: fqid.String(), AlarmType: "crash_failure", AlarmAt: time.Now().Add(-time.Second)}},
		serviceTypes: map[string]string{fqid.String(): "scabbard"},
	}
	h := &fakeHandler{}
	engine := NewEngine(fs, FactoryMap{"scabbard": &fakeFactory{handler: h}}, 5*time.Millisecond, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		n := len(h.fired)
		h.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.fired) != 1 || h.fired[0] != fqid.String()+"/crash_failure" {
		t.Fatalf("expected the alarm to fire once, got %v", h.fired)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.cleared) != 1 {
		t.Fatalf("expected the fired alarm to be cleared, got %v", fs.cleared)
	}
}

func TestEngineSkipsUnregisteredServiceType(t *testing.T) {
	fqid, _ := ids.NewFullyQualifiedServiceID("circuit-1", "svc-a")
	fs := &fakeAlarmStore{
		due:          []store.AlarmRow{{ServiceFQID: fqid.String(), AlarmType: "crash_failure", AlarmAt: time.Now().Add(-time.Second)}},
		serviceTypes: map[string]string{fqid.String(): "unknown-type"},
	}
	engine := NewEngine(fs, FactoryMap{}, 5*time.Millisecond, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	engine.Stop()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.cleared) != 0 {
		t.Fatalf("expected no clear for an unregistered service type, got %v", fs.cleared)
	}
}
