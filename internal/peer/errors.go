// Package peer implements the Peer Manager (§4.4): refcounted tracking
// of which transport connection backs each known peer, plus per-peer
// reconnect backoff bookkeeping. OnDisconnect records a lost connection
// and schedules the next attempt, and DueForReconnect/Reconnect let a
// caller redial; the Manager does not redial on its own.
//
// Grounded on teacher's network/detector/manager.go (LevelStateManager):
// a mutex-guarded map of per-key state, one state machine instance per
// key, looked up and advanced under the same lock — generalized here from
// per-shard crash/network-failure levels to per-peer backoff state.
// The error taxonomy is grounded on
// original_source/libsplinter/src/peer/error.rs's PeerManagerError/
// PeerRefAddError/PeerRefRemoveError/PeerListError/PeerConnectionIdError
// family, folded into this module's single errs.Kind taxonomy rather than
// one Go error type per RPC, since every caller here is in-process.
package peer

import "github.com/splinter-platform/splinter/internal/errs"

const (
	// KindUnknownPeer reports an operation against a peer id the Manager
	// has no record of (PeerRefRemoveError::RemoveError,
	// PeerConnectionIdError::ListError in the original taxonomy).
	KindUnknownPeer errs.Kind = "peer_unknown"
	// KindAddFailed reports a connector dial failure while adding a peer
	// (PeerRefAddError::AddError).
	KindAddFailed errs.Kind = "peer_add_failed"
)
