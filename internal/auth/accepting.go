package auth

// NextAcceptingState is the pure transition function for the side that
// accepted the connection, mirroring trust_v1.rs's
// TrustAuthorizationAcceptingState::next_accepting_state generalized the
// same way NextInitiatingState generalizes the initiating side.
func NextAcceptingState(state AcceptingState, action Action, managed *ManagedState) (AcceptingState, error) {
	switch state {
	case AcceptingConnecting:
		if action.Kind != ActionReceiveAuthProtocolRequest {
			return state, invalidAccepting(state, action.Kind)
		}
		managed.ProtocolVersion = action.ProtocolVersion
		return AcceptingReceivedAuthProtocolRequest, nil

	case AcceptingReceivedAuthProtocolRequest:
		if action.Kind != ActionSendAuthProtocolResponse {
			return state, invalidAccepting(state, action.Kind)
		}
		return AcceptingWaitingForCredentials, nil

	case AcceptingWaitingForCredentials:
		switch action.Kind {
		case ActionReceiveAuthTrustRequest:
			t := action.Token
			managed.RemoteToken = &t
			return AcceptingReceivedAuthTrustRequest, nil
		case ActionReceiveAuthChallengeNonceRequest:
			return AcceptingWaitingForChallengeSubmit, nil
		default:
			return state, invalidAccepting(state, action.Kind)
		}

	case AcceptingReceivedAuthTrustRequest:
		if action.Kind != ActionSendAuthTrustResponse {
			return state, invalidAccepting(state, action.Kind)
		}
		return AcceptingWaitingForAuthComplete, nil

	case AcceptingWaitingForChallengeSubmit:
		if action.Kind != ActionReceiveAuthChallengeSubmitRequest {
			return state, invalidAccepting(state, action.Kind)
		}
		t := action.Token
		managed.RemoteToken = &t
		return AcceptingReceivedChallengeSubmit, nil

	case AcceptingReceivedChallengeSubmit:
		if action.Kind != ActionSendAuthChallengeSubmitResponse {
			return state, invalidAccepting(state, action.Kind)
		}
		return AcceptingWaitingForAuthComplete, nil

	case AcceptingWaitingForAuthComplete:
		if action.Kind != ActionSendAuthComplete {
			return state, invalidAccepting(state, action.Kind)
		}
		return AcceptingAuthorized, nil

	default:
		return state, invalidAccepting(state, action.Kind)
	}
}
