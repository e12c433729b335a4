package auth

import (
	"crypto/ed25519"
	"testing"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

func TestInitiatingTrustHappyPath(t *testing.T) {
	m := NewInitiatingMachine(ids.TrustToken("node-b"))

	steps := []Action{
		{Kind: ActionSendAuthProtocolRequest, ProtocolVersion: 1},
		{Kind: ActionReceiveAuthProtocolResponse},
		{Kind: ActionReceiveAuthTrustResponse},
		{Kind: ActionReceiveAuthComplete, Token: ids.TrustToken("node-a")},
	}
	for _, action := range steps {
		if _, err := m.Step(action); err != nil {
			t.Fatalf("step %s: %v", action.Kind, err)
		}
	}
	if m.State() != InitiatingAuthorized {
		t.Fatalf("expected Authorized, got %s", m.State())
	}
	remote, ok := m.RemoteToken()
	if !ok || remote.IDAsString() != "node-a" {
		t.Fatalf("expected remote token node-a, got %v ok=%v", remote, ok)
	}
}

func TestAcceptingTrustHappyPath(t *testing.T) {
	m := NewAcceptingMachine()

	steps := []Action{
		{Kind: ActionReceiveAuthProtocolRequest, ProtocolVersion: 1},
		{Kind: ActionSendAuthProtocolResponse},
		{Kind: ActionReceiveAuthTrustRequest, Token: ids.TrustToken("node-a")},
		{Kind: ActionSendAuthTrustResponse},
		{Kind: ActionSendAuthComplete},
	}
	for _, action := range steps {
		if _, err := m.Step(action); err != nil {
			t.Fatalf("step %s: %v", action.Kind, err)
		}
	}
	if m.State() != AcceptingAuthorized {
		t.Fatalf("expected Authorized, got %s", m.State())
	}
	remote, ok := m.RemoteToken()
	if !ok || remote.IDAsString() != "node-a" {
		t.Fatalf("expected remote token node-a, got %v ok=%v", remote, ok)
	}
}

func TestChallengeHandshakeRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	localToken := ids.ChallengeToken(ids.PublicKey(pub))

	initiator := NewInitiatingMachine(localToken)
	acceptor := NewAcceptingMachine()

	if _, err := initiator.Step(Action{Kind: ActionSendAuthProtocolRequest, ProtocolVersion: 1}); err != nil {
		t.Fatalf("initiator send protocol request: %v", err)
	}
	if _, err := acceptor.Step(Action{Kind: ActionReceiveAuthProtocolRequest, ProtocolVersion: 1}); err != nil {
		t.Fatalf("acceptor receive protocol request: %v", err)
	}
	if _, err := acceptor.Step(Action{Kind: ActionSendAuthProtocolResponse}); err != nil {
		t.Fatalf("acceptor send protocol response: %v", err)
	}
	if _, err := initiator.Step(Action{Kind: ActionReceiveAuthProtocolResponse}); err != nil {
		t.Fatalf("initiator receive protocol response: %v", err)
	}

	if _, err := initiator.Step(Action{Kind: ActionReceiveAuthChallengeNonceRequest, Nonce: nil}); err != nil {
		t.Fatalf("initiator waiting for nonce: %v", err)
	}
	if _, err := acceptor.Step(Action{Kind: ActionReceiveAuthChallengeNonceRequest}); err != nil {
		t.Fatalf("acceptor receive nonce request: %v", err)
	}

	nonce, err := GenerateNonce(32)
	if err != nil {
		t.Fatalf("generate nonce: %v", err)
	}
	sig := SignChallenge(priv, nonce)

	if _, err := initiator.Step(Action{Kind: ActionReceiveAuthChallengeSubmitResponse}); err != nil {
		t.Fatalf("initiator receive submit response: %v", err)
	}
	remoteToken := ids.ChallengeToken(ids.PublicKey(pub))
	if _, err := acceptor.Step(Action{Kind: ActionReceiveAuthChallengeSubmitRequest, Token: remoteToken, Signature: sig}); err != nil {
		t.Fatalf("acceptor receive submit request: %v", err)
	}
	if err := VerifyChallenge(ids.PublicKey(pub), nonce, sig); err != nil {
		t.Fatalf("verify challenge: %v", err)
	}
	if _, err := acceptor.Step(Action{Kind: ActionSendAuthChallengeSubmitResponse}); err != nil {
		t.Fatalf("acceptor send submit response: %v", err)
	}

	if _, err := acceptor.Step(Action{Kind: ActionSendAuthComplete}); err != nil {
		t.Fatalf("acceptor send complete: %v", err)
	}
	if _, err := initiator.Step(Action{Kind: ActionReceiveAuthComplete, Token: ids.TrustToken("node-b")}); err != nil {
		t.Fatalf("initiator receive complete: %v", err)
	}

	if initiator.State() != InitiatingAuthorized {
		t.Fatalf("expected initiator Authorized, got %s", initiator.State())
	}
	if acceptor.State() != AcceptingAuthorized {
		t.Fatalf("expected acceptor Authorized, got %s", acceptor.State())
	}
	acceptorRemote, ok := acceptor.RemoteToken()
	if !ok || acceptorRemote.IDAsString() != remoteToken.IDAsString() {
		t.Fatalf("acceptor did not record the challenge token, got %v ok=%v", acceptorRemote, ok)
	}
}

func TestVerifyChallengeRejectsBadSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	err = VerifyChallenge(ids.PublicKey(pub), []byte("nonce"), []byte("not-a-signature"))
	if !errs.Is(err, errs.KindSignatureInvalid) {
		t.Fatalf("expected KindSignatureInvalid, got %v", err)
	}
}

func TestInitiatingRejectsOutOfOrderAction(t *testing.T) {
	m := NewInitiatingMachine(ids.TrustToken("node-b"))
	_, err := m.Step(Action{Kind: ActionReceiveAuthTrustResponse})
	if !errs.Is(err, errs.KindInvalidMessageOrder) {
		t.Fatalf("expected KindInvalidMessageOrder, got %v", err)
	}
	if m.State() != InitiatingConnecting {
		t.Fatalf("expected state to stay Connecting after rejected action, got %s", m.State())
	}
}

func TestAcceptingRejectsOutOfOrderAction(t *testing.T) {
	m := NewAcceptingMachine()
	_, err := m.Step(Action{Kind: ActionSendAuthTrustResponse})
	if !errs.Is(err, errs.KindInvalidMessageOrder) {
		t.Fatalf("expected KindInvalidMessageOrder, got %v", err)
	}
	if m.State() != AcceptingConnecting {
		t.Fatalf("expected state to stay Connecting after rejected action, got %s", m.State())
	}
}
