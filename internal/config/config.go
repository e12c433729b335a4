// Package config builds the platform's RuntimeConfig: environment
// variables, an optional .properties file, and defaults, assembled once
// and passed by reference to the code that reads it (today only
// auth.ConfiguredAuthorizationTypes; cmd/splinterd takes its settings as
// flags and does not load a RuntimeConfig). There is no package-level mutable configuration singleton (distilled
// spec §9, "Global state" design note) — this departs from the teacher's
// configs package, which is almost entirely package-global vars; the
// *values* it carries (timeouts, retry counts, protocol toggles) are kept
// as RuntimeConfig fields below.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/magiconair/properties"
)

const (
	envSplinterHome    = "SPLINTER_HOME"
	envSplinterStateDir = "SPLINTER_STATE_DIR"
	envSplinterRestAPI = "SPLINTER_REST_API_URL"

	defaultSplinterHome = "/etc/splinter"
	defaultStateDir     = "/var/lib/splinter"
	defaultRestAPI      = "http://127.0.0.1:8080"
)

// RuntimeConfig is the fully-resolved configuration for one node process.
type RuntimeConfig struct {
	// NodeID is this node's identity, used as the Trust token when dialing
	// peers that accept trust authorization.
	NodeID string

	// SplinterHome is the config root. Canonicalized if the path exists.
	SplinterHome string
	// StateDir is where durable state (store files, WAL segments) lives.
	// Canonicalized if the path exists.
	StateDir string
	// RestAPIURL is the advertised REST API base (contract-only in this
	// platform; the REST layer itself is out of scope).
	RestAPIURL string

	// AcceptedAuthTypes lists, in preference order, which authorization
	// types this node will offer/accept during the handshake (§4.3). At
	// least Trust or Challenge must be present.
	AcceptedAuthTypes []string

	// HeartbeatInterval and MaxMissedHeartbeats are loaded from the
	// properties file but read by nothing: no code sends heartbeats or
	// counts missed ones.
	HeartbeatInterval   time.Duration
	MaxMissedHeartbeats int
	// ReconnectBaseDelay and ReconnectMaxDelay are loaded but read by
	// nothing; the Peer Manager's backoff uses its own fixed initial delay
	// and cap.
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration

	// VoteTimeout and DecisionTimeout are the 2PC Consensus Core's
	// coordinator/participant alarm durations (§4.7).
	VoteTimeout     time.Duration
	DecisionTimeout time.Duration

	// RecvTimeout is read by nothing: Matrix.RecvTimeout takes its
	// timeout as an argument and Matrix.Recv blocks without a bound.
	RecvTimeout time.Duration

	// MaxFrameLength rejects any frame whose declared length exceeds it
	// with ProtocolError (§8 boundary behavior).
	MaxFrameLength uint32

	// StorePoolWriteTimeout bounds how long a caller will wait to acquire
	// the Store Command Layer's write-exclusive lock before it is handed
	// ResourceTemporarilyUnavailable (§5).
	StorePoolWriteTimeout time.Duration

	// DatabaseURL is the primary SQL (Postgres) store connection string.
	DatabaseURL string
	// TrieStateMongoURI is the connection string for the Mongo-backed
	// per-service trie state store (store.TrieStateStore). Nothing reads
	// it, and nothing constructs a TrieStateStore.
	TrieStateMongoURI string
}

// Default returns the platform's built-in defaults, before env/file
// overrides are applied.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		SplinterHome:          defaultSplinterHome,
		StateDir:              defaultStateDir,
		RestAPIURL:            defaultRestAPI,
		AcceptedAuthTypes:     []string{"Trust", "Challenge"},
		HeartbeatInterval:     10 * time.Second,
		MaxMissedHeartbeats:   3,
		ReconnectBaseDelay:    100 * time.Millisecond,
		ReconnectMaxDelay:     30 * time.Second,
		VoteTimeout:           5 * time.Second,
		DecisionTimeout:       10 * time.Second,
		RecvTimeout:           30 * time.Second,
		MaxFrameLength:        16 * 1024 * 1024,
		StorePoolWriteTimeout: 5 * time.Second,
	}
}

// Load resolves environment variables and an optional properties file on
// top of Default(), per §6 "Environment":
//
//	if SPLINTER_STATE_DIR is set it wins; else SPLINTER_HOME/data; else
//	the default. All are canonicalized if the path exists.
func Load(propertiesPath string) (*RuntimeConfig, error) {
	cfg := Default()

	if v := os.Getenv(envSplinterHome); v != "" {
		cfg.SplinterHome = v
	}
	switch {
	case os.Getenv(envSplinterStateDir) != "":
		cfg.StateDir = os.Getenv(envSplinterStateDir)
	case os.Getenv(envSplinterHome) != "":
		cfg.StateDir = filepath.Join(cfg.SplinterHome, "data")
	}
	if v := os.Getenv(envSplinterRestAPI); v != "" {
		cfg.RestAPIURL = v
	}
	cfg.SplinterHome = canonicalizeIfExists(cfg.SplinterHome)
	cfg.StateDir = canonicalizeIfExists(cfg.StateDir)

	if propertiesPath != "" {
		if err := applyPropertiesFile(cfg, propertiesPath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func canonicalizeIfExists(p string) string {
	if _, err := os.Stat(p); err != nil {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return resolved
}

func applyPropertiesFile(cfg *RuntimeConfig, path string) error {
	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return err
	}
	cfg.NodeID = props.GetString("node.id", cfg.NodeID)
	cfg.DatabaseURL = props.GetString("database.url", cfg.DatabaseURL)
	cfg.TrieStateMongoURI = props.GetString("trie_state.mongo_uri", cfg.TrieStateMongoURI)
	cfg.HeartbeatInterval = props.GetDuration("peer.heartbeat_interval", cfg.HeartbeatInterval)
	cfg.ReconnectBaseDelay = props.GetDuration("peer.reconnect_base_delay", cfg.ReconnectBaseDelay)
	cfg.ReconnectMaxDelay = props.GetDuration("peer.reconnect_max_delay", cfg.ReconnectMaxDelay)
	cfg.VoteTimeout = props.GetDuration("consensus.vote_timeout", cfg.VoteTimeout)
	cfg.DecisionTimeout = props.GetDuration("consensus.decision_timeout", cfg.DecisionTimeout)
	cfg.MaxMissedHeartbeats = props.GetInt("peer.max_missed_heartbeats", cfg.MaxMissedHeartbeats)
	return nil
}
