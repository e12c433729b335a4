package auth

import (
	"fmt"

	"github.com/splinter-platform/splinter/internal/ids"
)

// ActionKind names one event the state machine can be driven by, in
// protocol-message order. Both Trust and Challenge share the leading
// AuthProtocolRequest/Response negotiation; they diverge afterward.
type ActionKind int

const (
	ActionSendAuthProtocolRequest ActionKind = iota
	ActionReceiveAuthProtocolRequest
	ActionSendAuthProtocolResponse
	ActionReceiveAuthProtocolResponse

	ActionSendAuthTrustRequest
	ActionReceiveAuthTrustRequest
	ActionSendAuthTrustResponse
	ActionReceiveAuthTrustResponse

	ActionSendAuthChallengeNonceRequest
	ActionReceiveAuthChallengeNonceRequest
	ActionSendAuthChallengeNonceResponse
	ActionReceiveAuthChallengeNonceResponse
	ActionSendAuthChallengeSubmitRequest
	ActionReceiveAuthChallengeSubmitRequest
	ActionSendAuthChallengeSubmitResponse
	ActionReceiveAuthChallengeSubmitResponse

	ActionSendAuthComplete
	ActionReceiveAuthComplete
)

func (a ActionKind) String() string {
	names := [...]string{
		"SendAuthProtocolRequest", "ReceiveAuthProtocolRequest",
		"SendAuthProtocolResponse", "ReceiveAuthProtocolResponse",
		"SendAuthTrustRequest", "ReceiveAuthTrustRequest",
		"SendAuthTrustResponse", "ReceiveAuthTrustResponse",
		"SendAuthChallengeNonceRequest", "ReceiveAuthChallengeNonceRequest",
		"SendAuthChallengeNonceResponse", "ReceiveAuthChallengeNonceResponse",
		"SendAuthChallengeSubmitRequest", "ReceiveAuthChallengeSubmitRequest",
		"SendAuthChallengeSubmitResponse", "ReceiveAuthChallengeSubmitResponse",
		"SendAuthComplete", "ReceiveAuthComplete",
	}
	if int(a) < 0 || int(a) >= len(names) {
		return fmt.Sprintf("ActionKind(%d)", int(a))
	}
	return names[a]
}

// Action is one handshake step driving the machine forward. Only the
// fields relevant to Kind are populated; the rest are zero.
type Action struct {
	Kind ActionKind

	ProtocolVersion uint8
	Token           ids.PeerAuthorizationToken
	Nonce           []byte
	Signature       []byte
}
