// Package timer implements the Timer/Alarm Engine (§4.9): a single wake
// loop that polls for due alarms across every service and runs the
// registered TimerHandlerFactory for that alarm's service type, the way
// ScabbardTimerHandlerFactory builds a fresh ConsensusRunner-backed
// TimerHandler per fired timer rather than keeping one live permanently.
package timer

import (
	"context"

	"github.com/splinter-platform/splinter/internal/ids"
)

// Handler reacts to a single fired alarm for one service.
type Handler interface {
	HandleAlarm(ctx context.Context, serviceID ids.FullyQualifiedServiceID, alarmType string) error
}

// HandlerFactory builds a fresh Handler for a service type on demand
// instead of holding one open permanently, mirroring
// TimerHandlerFactory::new_handler's per-fire construction (it wraps a new
// ConsensusRunner around shared store/message factories each time).
type HandlerFactory interface {
	NewHandler() (Handler, error)
}

// FactoryMap registers a HandlerFactory per service type.
type FactoryMap map[string]HandlerFactory
