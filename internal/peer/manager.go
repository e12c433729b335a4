package peer

import (
	"context"
	"sync"
	"time"

	"github.com/splinter-platform/splinter/internal/connection"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
	"github.com/splinter-platform/splinter/internal/transport"
)

// BackoffState tracks one peer's reconnection schedule, grounded on the
// same "one state struct per key, advanced under the manager's lock"
// shape as LevelStateManager's per-shard LevelStateMachine.
type BackoffState struct {
	Attempts int
	NextTry  time.Time
}

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 5 * time.Minute
)

// next computes the backoff after one more failed attempt, doubling up to
// maxBackoff.
func (b *BackoffState) next(now time.Time) {
	b.Attempts++
	delay := initialBackoff << uint(b.Attempts-1)
	if delay <= 0 || delay > maxBackoff {
		delay = maxBackoff
	}
	b.NextTry = now.Add(delay)
}

func (b *BackoffState) reset() {
	b.Attempts = 0
	b.NextTry = time.Time{}
}

// record is one tracked peer: its connection (if currently live), a
// reference count from callers that asked to be connected to it, and its
// reconnect schedule.
type record struct {
	token      ids.PeerTokenPair
	endpoint   string
	connID     connection.ID
	refCount   int
	connected  bool
	backoff    BackoffState
}

// Manager is the Peer Manager (§4.4): the single owner of which
// connection id backs each peer, reference-counted across callers that
// have asked to stay connected to it.
type Manager struct {
	mu     sync.Mutex
	peers  map[string]*record
	matrix *connection.Matrix
	dialer transport.Dialer
	log    *logging.Logger

	nextConnID int
}

// NewManager builds a Manager dialing new peer connections with dialer
// and tracking live connections in matrix.
func NewManager(matrix *connection.Matrix, dialer transport.Dialer, log *logging.Logger) *Manager {
	return &Manager{
		peers:  make(map[string]*record),
		matrix: matrix,
		dialer: dialer,
		log:    log.With("peer_manager"),
	}
}

// AddPeer registers interest in being connected to token at endpoint,
// dialing it if this is the first interested caller, and returns the
// connection id backing it. Concurrent callers for the same token share
// one connection and one refcount.
func (m *Manager) AddPeer(ctx context.Context, token ids.PeerTokenPair, endpoint string) (connection.ID, error) {
	key := token.IDAsString()

	m.mu.Lock()
	r, ok := m.peers[key]
	if ok {
		r.refCount++
		connID := r.connID
		connected := r.connected
		m.mu.Unlock()
		if connected {
			return connID, nil
		}
		return m.dial(ctx, key)
	}
	r = &record{token: token, endpoint: endpoint, refCount: 1}
	m.peers[key] = r
	m.mu.Unlock()

	return m.dial(ctx, key)
}

func (m *Manager) dial(ctx context.Context, key string) (connection.ID, error) {
	m.mu.Lock()
	r, ok := m.peers[key]
	if !ok {
		m.mu.Unlock()
		return "", errs.Newf(KindUnknownPeer, "peer %q not tracked", key)
	}
	endpoint := r.endpoint
	m.mu.Unlock()

	conn, err := m.dialer.Dial(ctx, endpoint)
	if err != nil {
		m.mu.Lock()
		if r, ok := m.peers[key]; ok {
			r.backoff.next(time.Now())
		}
		m.mu.Unlock()
		m.log.Warnf("dial peer %q at %q failed: %v", key, endpoint, err)
		return "", errs.Wrap(KindAddFailed, "dial peer "+key, err)
	}

	m.mu.Lock()
	connID := connection.ID(key)
	r.connID = connID
	r.connected = true
	r.backoff.reset()
	m.mu.Unlock()

	m.matrix.Add(connID, conn)
	return connID, nil
}

// RemovePeer releases one caller's interest in token. Once the refcount
// reaches zero the connection is dropped and the peer forgotten.
func (m *Manager) RemovePeer(token ids.PeerTokenPair) error {
	key := token.IDAsString()

	m.mu.Lock()
	r, ok := m.peers[key]
	if !ok {
		m.mu.Unlock()
		return errs.Newf(KindUnknownPeer, "peer %q not tracked", key)
	}
	r.refCount--
	remaining := r.refCount
	connID := r.connID
	connected := r.connected
	if remaining <= 0 {
		delete(m.peers, key)
	}
	m.mu.Unlock()

	if remaining > 0 || !connected {
		return nil
	}
	return m.matrix.Remove(connID)
}

// ConnectionIDFor reports the connection id currently backing token, or
// KindUnknownPeer if it is not connected.
func (m *Manager) ConnectionIDFor(token ids.PeerTokenPair) (connection.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.peers[token.IDAsString()]
	if !ok || !r.connected {
		return "", errs.Newf(KindUnknownPeer, "peer %q not connected", token.IDAsString())
	}
	return r.connID, nil
}

// ListPeers reports every currently tracked peer token.
func (m *Manager) ListPeers() []ids.PeerTokenPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ids.PeerTokenPair, 0, len(m.peers))
	for _, r := range m.peers {
		out = append(out, r.token)
	}
	return out
}

// OnDisconnect marks token's connection as lost and schedules the next
// reconnect attempt; it does not itself redial (the caller's reconnect
// loop calls DueForReconnect/Reconnect on its own schedule).
func (m *Manager) OnDisconnect(token ids.PeerTokenPair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.peers[token.IDAsString()]
	if !ok {
		return
	}
	r.connected = false
	r.backoff.next(time.Now())
}

// DueForReconnect lists every tracked-but-disconnected peer whose backoff
// has elapsed as of now.
func (m *Manager) DueForReconnect(now time.Time) []ids.PeerTokenPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []ids.PeerTokenPair
	for _, r := range m.peers {
		if !r.connected && !r.backoff.NextTry.After(now) {
			due = append(due, r.token)
		}
	}
	return due
}

// Reconnect retries the dial for token, honoring the same backoff path
// as a fresh AddPeer.
func (m *Manager) Reconnect(ctx context.Context, token ids.PeerTokenPair) (connection.ID, error) {
	return m.dial(ctx, token.IDAsString())
}
