// Package errs defines the per-layer typed error kinds described in the
// error handling design (§7): transport, authorization, dispatch, admin,
// consensus, and store. Each is a Go error implementing Kind() so callers
// can branch on layer without parsing strings, in the spirit of the
// teacher's utils.ErrLockTimeout/ErrTimeout pair generalized into a full
// taxonomy.
package errs

import (
	"errors"
	"fmt"
)

// Kind names the broad category of a platform error.
type Kind string

const (
	KindIO              Kind = "io_error"
	KindProtocol         Kind = "protocol_error"
	KindDisconnected     Kind = "disconnected"
	KindUnsupportedVersion Kind = "unsupported_version"

	KindInvalidMessageOrder Kind = "invalid_message_order"
	KindIdentityMismatch    Kind = "identity_mismatch"
	KindSignatureInvalid    Kind = "signature_invalid"
	KindUnsupportedAuthType Kind = "unsupported_auth_type"

	KindNoHandler         Kind = "no_handler"
	KindDeserialization   Kind = "deserialization_error"
	KindNetworkSendError  Kind = "network_send_error"

	KindProposalValidation  Kind = "proposal_validation"
	KindDuplicateCircuit    Kind = "duplicate_circuit"
	KindUnknownMember       Kind = "unknown_member"
	KindVoteAlreadyRecorded Kind = "vote_already_recorded"
	KindMaterializationConflict Kind = "materialization_conflict"

	KindInvalidTransition Kind = "invalid_transition"
	KindUnknownContext    Kind = "unknown_context"
	KindAlarmClockSkew    Kind = "alarm_clock_skew"

	KindConstraintUnique     Kind = "constraint_unique"
	KindConstraintForeignKey Kind = "constraint_foreign_key"
	KindConstraintNotFound   Kind = "constraint_not_found"
	KindResourceUnavailable  Kind = "resource_temporarily_unavailable"
	KindInvalidState         Kind = "invalid_state"
	KindInternal             Kind = "internal"
)

// Error is the concrete error type carried through every layer.
type Error struct {
	kind    Kind
	message string
	wrapped error
}

// New builds a Kind-tagged error with a message.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf builds a Kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap builds a Kind-tagged error wrapping an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, wrapped: cause}
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Kind reports the error's layer-specific category.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.wrapped }

// Is reports whether err is an *Error with the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
