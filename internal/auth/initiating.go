package auth

import "github.com/splinter-platform/splinter/internal/ids"

// NextInitiatingState is the pure transition function for the dialing
// side of a connection, mirroring trust_v1.rs's
// TrustAuthorizationInitiatingState::next_initiating_state generalized to
// cover protocol negotiation and both the Trust and Challenge credential
// phases. managed is mutated in place to record what has been learned so
// far (negotiated version, presented tokens, outstanding nonce); the
// caller owns persisting it between calls.
func NextInitiatingState(state InitiatingState, action Action, managed *ManagedState) (InitiatingState, error) {
	switch state {
	case InitiatingConnecting:
		if action.Kind != ActionSendAuthProtocolRequest {
			return state, invalidInitiating(state, action.Kind)
		}
		managed.ProtocolVersion = action.ProtocolVersion
		return InitiatingWaitingForAuthProtocolResponse, nil

	case InitiatingWaitingForAuthProtocolResponse:
		if action.Kind != ActionReceiveAuthProtocolResponse {
			return state, invalidInitiating(state, action.Kind)
		}
		if managed.LocalToken == nil {
			return state, invalidInitiating(state, action.Kind)
		}
		switch managed.LocalToken.Kind() {
		case ids.AuthTrust:
			return InitiatingWaitingForTrustResponse, nil
		case ids.AuthChallenge:
			return InitiatingWaitingForChallengeNonceRequest, nil
		default:
			return state, invalidInitiating(state, action.Kind)
		}

	case InitiatingWaitingForTrustResponse:
		if action.Kind != ActionReceiveAuthTrustResponse {
			return state, invalidInitiating(state, action.Kind)
		}
		return InitiatingWaitingForAuthComplete, nil

	case InitiatingWaitingForChallengeNonceRequest:
		if action.Kind != ActionReceiveAuthChallengeNonceRequest {
			return state, invalidInitiating(state, action.Kind)
		}
		managed.ChallengeNonce = action.Nonce
		return InitiatingWaitingForChallengeResponse, nil

	case InitiatingWaitingForChallengeResponse:
		if action.Kind != ActionReceiveAuthChallengeSubmitResponse {
			return state, invalidInitiating(state, action.Kind)
		}
		return InitiatingWaitingForAuthComplete, nil

	case InitiatingWaitingForAuthComplete:
		if action.Kind != ActionReceiveAuthComplete {
			return state, invalidInitiating(state, action.Kind)
		}
		t := action.Token
		managed.RemoteToken = &t
		return InitiatingAuthorized, nil

	default:
		return state, invalidInitiating(state, action.Kind)
	}
}
