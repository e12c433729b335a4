package ids

import (
	"encoding/hex"
	"fmt"
)

// AuthorizationType names the two supported peer authentication schemes.
// Both are always compiled in; which ones a node accepts at runtime is a
// RuntimeConfig choice, not a build-time flag (resolving the distilled
// spec's "fix the protocol matrix at design time" open question).
type AuthorizationType int

const (
	// AuthTrust authenticates a peer by its claimed node id alone.
	AuthTrust AuthorizationType = iota
	// AuthChallenge authenticates a peer by a signature challenge over its
	// public key.
	AuthChallenge
)

func (a AuthorizationType) String() string {
	switch a {
	case AuthTrust:
		return "Trust"
	case AuthChallenge:
		return "Challenge"
	default:
		return fmt.Sprintf("AuthorizationType(%d)", int(a))
	}
}

// ParseAuthorizationType parses the wire string form ("Trust"/"Challenge")
// used by AuthProtocolResponse.AcceptedAuthorizations and
// RuntimeConfig.AcceptedAuthTypes, reporting ok=false for anything else.
func ParseAuthorizationType(s string) (AuthorizationType, bool) {
	switch s {
	case "Trust":
		return AuthTrust, true
	case "Challenge":
		return AuthChallenge, true
	default:
		return 0, false
	}
}

// PublicKey is a raw public key byte string.
type PublicKey []byte

// Hex renders the key as a lowercase hex string.
func (p PublicKey) Hex() string { return hex.EncodeToString(p) }

// PeerAuthorizationToken identifies a peer either by trusted node id or by
// public key, depending on the authorization type negotiated with it.
type PeerAuthorizationToken struct {
	kind      AuthorizationType
	peerID    NodeID
	publicKey PublicKey
}

// TrustToken builds a Trust token from a node id.
func TrustToken(peerID NodeID) PeerAuthorizationToken {
	return PeerAuthorizationToken{kind: AuthTrust, peerID: peerID}
}

// ChallengeToken builds a Challenge token from a public key.
func ChallengeToken(publicKey PublicKey) PeerAuthorizationToken {
	return PeerAuthorizationToken{kind: AuthChallenge, publicKey: publicKey}
}

// Kind reports which authorization type this token carries.
func (t PeerAuthorizationToken) Kind() AuthorizationType { return t.kind }

// NodeID returns the trusted node id and true, or ("", false) if this is a
// Challenge token.
func (t PeerAuthorizationToken) NodeID() (NodeID, bool) {
	if t.kind != AuthTrust {
		return "", false
	}
	return t.peerID, true
}

// PublicKey returns the public key and true, or (nil, false) if this is a
// Trust token.
func (t PeerAuthorizationToken) PublicKey() (PublicKey, bool) {
	if t.kind != AuthChallenge {
		return nil, false
	}
	return t.publicKey, true
}

// IDAsString renders a stable string identity for the token, used as a map
// key and in log lines.
func (t PeerAuthorizationToken) IDAsString() string {
	switch t.kind {
	case AuthTrust:
		return string(t.peerID)
	case AuthChallenge:
		return "public_key::" + t.publicKey.Hex()
	default:
		return ""
	}
}

func (t PeerAuthorizationToken) String() string {
	switch t.kind {
	case AuthTrust:
		return fmt.Sprintf("Trust(peer_id: %s)", t.peerID)
	case AuthChallenge:
		return fmt.Sprintf("Challenge(public_key: %s)", t.publicKey.Hex())
	default:
		return "unknown"
	}
}

// PeerTokenPair carries both the remote peer's token and the local node's
// token, since a node may present different local identities to different
// peers (e.g. different keys per circuit).
type PeerTokenPair struct {
	peerID PeerAuthorizationToken
	localID PeerAuthorizationToken
}

// NewPeerTokenPair builds a token pair.
func NewPeerTokenPair(peerID, localID PeerAuthorizationToken) PeerTokenPair {
	return PeerTokenPair{peerID: peerID, localID: localID}
}

// PeerID returns the remote peer's token.
func (p PeerTokenPair) PeerID() PeerAuthorizationToken { return p.peerID }

// LocalID returns the local node's token as presented to this peer.
func (p PeerTokenPair) LocalID() PeerAuthorizationToken { return p.localID }

// IDAsString renders a map-key-stable identity. For Trust peers the local
// id never disambiguates (a node has one identity), but for Challenge
// peers the same public key may be approached under different local
// identities, so both halves are folded in.
func (p PeerTokenPair) IDAsString() string {
	if p.peerID.Kind() == AuthTrust {
		return p.peerID.IDAsString()
	}
	return p.peerID.IDAsString() + "::" + p.localID.IDAsString()
}

func (p PeerTokenPair) String() string {
	return fmt.Sprintf("Peer: %s, Local: %s", p.peerID, p.localID)
}
