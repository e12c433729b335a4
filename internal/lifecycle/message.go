package lifecycle

import "github.com/splinter-platform/splinter/internal/ids"

// MessageKind names what the Executor's loop was woken up to do.
type MessageKind int

const (
	// WakeUpAll checks every registered service type for pending work.
	WakeUpAll MessageKind = iota
	// WakeUp checks a single service type, optionally narrowed to one
	// service id within it.
	WakeUp
	// Shutdown stops the loop.
	Shutdown
)

// Message is one entry on the Executor's command channel.
type Message struct {
	Kind        MessageKind
	ServiceType string
	ServiceID   *ids.FullyQualifiedServiceID
}

// WakeUpAllMessage builds a message that sweeps every service type.
func WakeUpAllMessage() Message { return Message{Kind: WakeUpAll} }

// WakeUpMessage builds a message that checks serviceType, or a single
// serviceID within it when non-nil.
func WakeUpMessage(serviceType string, serviceID *ids.FullyQualifiedServiceID) Message {
	return Message{Kind: WakeUp, ServiceType: serviceType, ServiceID: serviceID}
}

// ShutdownMessage builds the stop message.
func ShutdownMessage() Message { return Message{Kind: Shutdown} }
