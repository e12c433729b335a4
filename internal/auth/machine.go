package auth

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

// Signature verification uses the standard library's crypto/ed25519
// rather than a third-party signing package: no example in the pack
// pulls in an external crypto/signing library, and ed25519 is the
// idiomatic Go choice for this even in dependency-heavy services (the
// stdlib primitive, not a convenience wrapper, is what's being reused).

// InitiatingMachine drives the handshake from the side that dialed the
// connection.
type InitiatingMachine struct {
	state   InitiatingState
	managed ManagedState
}

// NewInitiatingMachine starts a fresh initiating-side machine presenting
// localToken as this node's credential.
func NewInitiatingMachine(localToken ids.PeerAuthorizationToken) *InitiatingMachine {
	return &InitiatingMachine{
		state:   InitiatingConnecting,
		managed: ManagedState{LocalToken: &localToken},
	}
}

// State reports the machine's current state.
func (m *InitiatingMachine) State() InitiatingState { return m.state }

// RemoteToken reports the peer's token once AuthComplete has been
// received, or (zero value, false) beforehand.
func (m *InitiatingMachine) RemoteToken() (ids.PeerAuthorizationToken, bool) {
	if m.managed.RemoteToken == nil {
		return ids.PeerAuthorizationToken{}, false
	}
	return *m.managed.RemoteToken, true
}

// Step drives the machine by one action, returning the new state or an
// InvalidMessageOrder error if action is not legal from the current
// state. On success, m's internal state advances; on error it does not.
func (m *InitiatingMachine) Step(action Action) (InitiatingState, error) {
	next, err := NextInitiatingState(m.state, action, &m.managed)
	if err != nil {
		return m.state, err
	}
	m.state = next
	return next, nil
}

// SignChallenge signs nonce with priv, producing the signature to carry
// in an AuthChallengeSubmitRequest.
func SignChallenge(priv ed25519.PrivateKey, nonce []byte) []byte {
	return ed25519.Sign(priv, nonce)
}

// AcceptingMachine drives the handshake from the side that accepted the
// connection.
type AcceptingMachine struct {
	state   AcceptingState
	managed ManagedState
}

// NewAcceptingMachine starts a fresh accepting-side machine.
func NewAcceptingMachine() *AcceptingMachine {
	return &AcceptingMachine{state: AcceptingConnecting}
}

// State reports the machine's current state.
func (m *AcceptingMachine) State() AcceptingState { return m.state }

// OfferAuthorizations computes the accepted_authorizations list this
// machine will carry in its AuthProtocolResponse (§4.3 point 1) from base
// (ordinarily ConfiguredAuthorizationTypes(cfg)), narrowed by expected and
// requiredLocal per NarrowAcceptedAuthorizations, and records it on the
// machine so it can be read back via AcceptedAuthorizations.
func (m *AcceptingMachine) OfferAuthorizations(base []ids.AuthorizationType, expected, requiredLocal *ids.AuthorizationType) ([]ids.AuthorizationType, error) {
	offered, err := NarrowAcceptedAuthorizations(base, expected, requiredLocal)
	if err != nil {
		return nil, err
	}
	m.managed.AcceptedAuthorizations = offered
	return offered, nil
}

// AcceptedAuthorizations reports the offer list last computed by
// OfferAuthorizations, or nil if it hasn't been called yet.
func (m *AcceptingMachine) AcceptedAuthorizations() []ids.AuthorizationType {
	return m.managed.AcceptedAuthorizations
}

// RemoteToken reports the peer's claimed token once presented, or (zero
// value, false) beforehand.
func (m *AcceptingMachine) RemoteToken() (ids.PeerAuthorizationToken, bool) {
	if m.managed.RemoteToken == nil {
		return ids.PeerAuthorizationToken{}, false
	}
	return *m.managed.RemoteToken, true
}

// Step drives the machine by one action, returning the new state or an
// InvalidMessageOrder error if action is not legal from the current
// state.
func (m *AcceptingMachine) Step(action Action) (AcceptingState, error) {
	next, err := NextAcceptingState(m.state, action, &m.managed)
	if err != nil {
		return m.state, err
	}
	m.state = next
	return next, nil
}

// GenerateNonce produces a fresh random challenge nonce to send in an
// AuthChallengeNonceResponse.
func GenerateNonce(size int) ([]byte, error) {
	nonce := make([]byte, size)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "generate challenge nonce", err)
	}
	return nonce, nil
}

// VerifyChallenge checks sig over nonce against publicKey, returning
// KindSignatureInvalid on mismatch.
func VerifyChallenge(publicKey ids.PublicKey, nonce, sig []byte) error {
	if !ed25519.Verify(ed25519.PublicKey(publicKey), nonce, sig) {
		return errs.New(errs.KindSignatureInvalid, "challenge signature does not verify")
	}
	return nil
}
