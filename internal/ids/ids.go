// Package ids defines the identifier types shared across the platform:
// node ids, circuit ids, and fully qualified service ids.
package ids

import (
	"fmt"
	"strings"
)

// NodeID is a free-form string, unique per operator, naming a node in the
// peer mesh.
type NodeID string

// CircuitID uniquely names a circuit platform-wide.
type CircuitID string

// ServiceID is unique within its owning circuit.
type ServiceID string

// FullyQualifiedServiceID is a (circuit id, service id) pair, unique
// platform-wide. Its wire form is "<circuit_id>::<service_id>".
type FullyQualifiedServiceID struct {
	circuitID CircuitID
	serviceID ServiceID
}

const fqsidSeparator = "::"

// NewFullyQualifiedServiceID builds an FQSID from already-validated parts.
func NewFullyQualifiedServiceID(circuitID CircuitID, serviceID ServiceID) (FullyQualifiedServiceID, error) {
	if circuitID == "" {
		return FullyQualifiedServiceID{}, fmt.Errorf("ids: %w: empty circuit id", ErrInvalidServiceID)
	}
	if serviceID == "" {
		return FullyQualifiedServiceID{}, fmt.Errorf("ids: %w: empty service id", ErrInvalidServiceID)
	}
	return FullyQualifiedServiceID{circuitID: circuitID, serviceID: serviceID}, nil
}

// ParseFullyQualifiedServiceID parses the wire form "<circuit_id>::<service_id>".
//
// Both halves must be non-empty after splitting on the separator; a missing
// separator, an empty half on either side, or more than one separator are
// all rejected here rather than deferred to a later validation pass (this
// platform's resolution of the distilled spec's service-id-parsing open
// question).
func ParseFullyQualifiedServiceID(s string) (FullyQualifiedServiceID, error) {
	parts := strings.Split(s, fqsidSeparator)
	if len(parts) != 2 {
		return FullyQualifiedServiceID{}, fmt.Errorf("ids: %w: %q must contain exactly one %q separator", ErrInvalidServiceID, s, fqsidSeparator)
	}
	circuitID, serviceID := parts[0], parts[1]
	if circuitID == "" || serviceID == "" {
		return FullyQualifiedServiceID{}, fmt.Errorf("ids: %w: %q has an empty half", ErrInvalidServiceID, s)
	}
	return NewFullyQualifiedServiceID(CircuitID(circuitID), ServiceID(serviceID))
}

// CircuitID returns the circuit half.
func (f FullyQualifiedServiceID) CircuitID() CircuitID { return f.circuitID }

// ServiceID returns the service half.
func (f FullyQualifiedServiceID) ServiceID() ServiceID { return f.serviceID }

// String renders the canonical wire form.
func (f FullyQualifiedServiceID) String() string {
	return string(f.circuitID) + fqsidSeparator + string(f.serviceID)
}

// IsZero reports whether f is the zero value.
func (f FullyQualifiedServiceID) IsZero() bool {
	return f.circuitID == "" && f.serviceID == ""
}
