// Package auth implements the per-connection Authorization State Machine
// (§4.3): the handshake two nodes run immediately after a transport
// connection is established, before either side will accept circuit or
// admin traffic on it.
//
// Grounded on original_source/libsplinter/src/network/auth/state_machine/
// trust_v1.rs: the Initiating/Accepting sub-machine split (the side that
// opened the connection drives a different state sequence than the side
// that accepted it), and next_initiating_state/next_accepting_state as
// pure functions returning InvalidInitiatingMessageOrder/
// InvalidAcceptingMessageOrder on an out-of-order action, generalized here
// to both AuthTrust and AuthChallenge (trust_v1.rs only had the Trust
// variant; Challenge's extra nonce/signature round trip is modeled after
// the same shape). The explicit current-state-assertion-then-transition
// idiom also echoes the teacher's txnHandler.transit (network/coordinator/
// txn_handler.go).
package auth

import (
	"fmt"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

// InitiatingState is the state sequence run by the side that dialed the
// connection.
type InitiatingState int

const (
	InitiatingConnecting InitiatingState = iota
	InitiatingWaitingForAuthProtocolResponse
	InitiatingWaitingForTrustResponse
	InitiatingWaitingForChallengeNonceRequest
	InitiatingWaitingForChallengeResponse
	InitiatingWaitingForAuthComplete
	InitiatingAuthorized
	InitiatingUnauthorized
)

func (s InitiatingState) String() string {
	switch s {
	case InitiatingConnecting:
		return "Connecting"
	case InitiatingWaitingForAuthProtocolResponse:
		return "WaitingForAuthProtocolResponse"
	case InitiatingWaitingForTrustResponse:
		return "WaitingForAuthTrustResponse"
	case InitiatingWaitingForChallengeNonceRequest:
		return "WaitingForAuthChallengeNonceRequest"
	case InitiatingWaitingForChallengeResponse:
		return "WaitingForAuthChallengeSubmitResponse"
	case InitiatingWaitingForAuthComplete:
		return "WaitingForAuthComplete"
	case InitiatingAuthorized:
		return "Authorized"
	case InitiatingUnauthorized:
		return "Unauthorized"
	default:
		return fmt.Sprintf("InitiatingState(%d)", int(s))
	}
}

// AcceptingState is the state sequence run by the side that accepted the
// connection.
type AcceptingState int

const (
	AcceptingConnecting AcceptingState = iota
	AcceptingReceivedAuthProtocolRequest
	AcceptingWaitingForCredentials
	AcceptingReceivedAuthTrustRequest
	AcceptingReceivedChallengeSubmit
	AcceptingWaitingForChallengeSubmit
	AcceptingWaitingForAuthComplete
	AcceptingAuthorized
	AcceptingUnauthorized
)

func (s AcceptingState) String() string {
	switch s {
	case AcceptingConnecting:
		return "Connecting"
	case AcceptingReceivedAuthProtocolRequest:
		return "ReceivedAuthProtocolRequest"
	case AcceptingWaitingForCredentials:
		return "WaitingForCredentials"
	case AcceptingReceivedAuthTrustRequest:
		return "ReceivedAuthTrustRequest"
	case AcceptingWaitingForChallengeSubmit:
		return "WaitingForAuthChallengeSubmitRequest"
	case AcceptingReceivedChallengeSubmit:
		return "ReceivedAuthChallengeSubmitRequest"
	case AcceptingWaitingForAuthComplete:
		return "WaitingForAuthComplete"
	case AcceptingAuthorized:
		return "Authorized"
	case AcceptingUnauthorized:
		return "Unauthorized"
	default:
		return fmt.Sprintf("AcceptingState(%d)", int(s))
	}
}

// ManagedState is the mutable record a Machine threads through each
// transition: the negotiated protocol version and the token each side has
// presented so far, filled in as the handshake progresses.
type ManagedState struct {
	ProtocolVersion  uint8
	LocalToken       *ids.PeerAuthorizationToken
	RemoteToken      *ids.PeerAuthorizationToken
	ChallengeNonce   []byte

	// AcceptedAuthorizations is the accepting side's computed offer list
	// (§4.3 point 1), recorded by AcceptingMachine.OfferAuthorizations so
	// it can be read back when building the AuthProtocolResponse.
	AcceptedAuthorizations []ids.AuthorizationType
}

func invalidInitiating(state InitiatingState, action ActionKind) error {
	return errs.Newf(errs.KindInvalidMessageOrder,
		"invalid action %s for initiating state %s", action, state)
}

func invalidAccepting(state AcceptingState, action ActionKind) error {
	return errs.Newf(errs.KindInvalidMessageOrder,
		"invalid action %s for accepting state %s", action, state)
}
