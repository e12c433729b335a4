package auth

import "github.com/splinter-platform/splinter/internal/ids"

// Wire messages exchanged during the handshake (§4.3, §6). Encoding is
// the same goccy/go-json codec used by every other wire message in this
// module; these are plain structs rather than protobuf types because the
// handshake runs over the tcp:// framing directly, before any gRPC
// channel exists.

// AuthProtocolRequest opens the handshake, offering the dialer's highest
// supported protocol version.
type AuthProtocolRequest struct {
	MaxVersion uint8 `json:"max_version"`
	MinVersion uint8 `json:"min_version"`
}

// AuthProtocolResponse is the accepting side's chosen version plus the
// authorization types it will accept for this connection (§4.3 point 1). A
// Version of 0 signals no overlap; the dialer must disconnect.
// AcceptedAuthorizations is never empty on a successful negotiation — see
// NarrowAcceptedAuthorizations.
type AuthProtocolResponse struct {
	Version                uint8    `json:"version"`
	AcceptedAuthorizations []string `json:"accepted_authorizations"`
}

// EncodeAuthorizationTypes renders types in their wire string form, order
// preserved so the acceptor's preference survives onto the wire for
// SelectAuthorizationType to break ties on.
func EncodeAuthorizationTypes(types []ids.AuthorizationType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

// DecodeAuthorizationTypes parses the wire string form back, skipping
// (rather than failing on) any name this build doesn't recognize — a peer
// advertising a type this build doesn't know about shouldn't break
// negotiation over the types it does share.
func DecodeAuthorizationTypes(names []string) []ids.AuthorizationType {
	out := make([]ids.AuthorizationType, 0, len(names))
	for _, n := range names {
		if t, ok := ids.ParseAuthorizationType(n); ok {
			out = append(out, t)
		}
	}
	return out
}

// AuthTrustRequest presents a claimed node identity with no proof beyond
// the claim itself.
type AuthTrustRequest struct {
	NodeID string `json:"node_id"`
}

// AuthTrustResponse acknowledges a trust claim.
type AuthTrustResponse struct{}

// AuthChallengeNonceRequest asks the peer for a nonce to sign, offering
// the requester's public key.
type AuthChallengeNonceRequest struct {
	PublicKey []byte `json:"public_key"`
}

// AuthChallengeNonceResponse carries the nonce to be signed.
type AuthChallengeNonceResponse struct {
	Nonce []byte `json:"nonce"`
}

// AuthChallengeSubmitRequest carries the signature over Nonce produced by
// the private key matching PublicKey.
type AuthChallengeSubmitRequest struct {
	PublicKey []byte `json:"public_key"`
	Nonce     []byte `json:"nonce"`
	Signature []byte `json:"signature"`
}

// AuthChallengeSubmitResponse acknowledges a verified signature.
type AuthChallengeSubmitResponse struct{}

// AuthComplete ends the handshake, exchanging the final confirmed
// identity token string (mirrors ids.PeerAuthorizationToken.IDAsString)
// so each side logs the same peer id for this connection.
type AuthComplete struct {
	TokenID string `json:"token_id"`
}
