package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/goccy/go-json"

	"github.com/splinter-platform/splinter/internal/consensus"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/logging"
)

// schemaStatements creates the logical schema (§6) if it does not
// already exist. Grounded on the teacher's `mustExec`-per-statement idiom
// in storage/postgres.go, generalized from one hardcoded YCSB_MAIN table
// to the platform's full table set.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS circuits (
		circuit_id TEXT PRIMARY KEY,
		auth_type TEXT NOT NULL,
		persistence TEXT NOT NULL,
		durable BOOLEAN NOT NULL,
		routing TEXT NOT NULL,
		management TEXT NOT NULL,
		display_name TEXT NOT NULL,
		version INT NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS circuit_members (
		circuit_id TEXT NOT NULL REFERENCES circuits(circuit_id),
		node_id TEXT NOT NULL,
		position INT NOT NULL,
		public_key BYTEA,
		PRIMARY KEY (circuit_id, node_id)
	)`,
	`CREATE TABLE IF NOT EXISTS node_endpoints (
		node_id TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		PRIMARY KEY (node_id, endpoint)
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		circuit_id TEXT NOT NULL REFERENCES circuits(circuit_id),
		service_id TEXT NOT NULL,
		service_type TEXT NOT NULL,
		owning_node_id TEXT NOT NULL,
		PRIMARY KEY (circuit_id, service_id)
	)`,
	`CREATE TABLE IF NOT EXISTS service_arguments (
		circuit_id TEXT NOT NULL,
		service_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (circuit_id, service_id, key),
		FOREIGN KEY (circuit_id, service_id) REFERENCES services(circuit_id, service_id)
	)`,
	`CREATE TABLE IF NOT EXISTS proposals (
		circuit_id TEXT PRIMARY KEY,
		requester_key BYTEA NOT NULL,
		requester_node_id TEXT NOT NULL,
		circuit_snapshot_blob JSONB NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS proposal_votes (
		circuit_id TEXT NOT NULL REFERENCES proposals(circuit_id),
		voter_node_id TEXT NOT NULL,
		vote TEXT NOT NULL,
		voter_key BYTEA,
		PRIMARY KEY (circuit_id, voter_node_id)
	)`,
	`CREATE TABLE IF NOT EXISTS lifecycle_services (
		service_fqid TEXT PRIMARY KEY,
		circuit_id TEXT NOT NULL,
		service_type TEXT NOT NULL,
		arguments_blob JSONB NOT NULL,
		command TEXT NOT NULL,
		status TEXT NOT NULL,
		service_status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_context (
		service_fqid TEXT NOT NULL,
		epoch BIGINT NOT NULL,
		coordinator TEXT NOT NULL,
		last_commit_epoch BIGINT,
		alarm TIMESTAMPTZ,
		state_enum TEXT NOT NULL,
		state_extra_blob JSONB NOT NULL,
		PRIMARY KEY (service_fqid, epoch)
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_context_participant (
		service_fqid TEXT NOT NULL,
		epoch BIGINT NOT NULL,
		process TEXT NOT NULL,
		vote BOOLEAN,
		PRIMARY KEY (service_fqid, epoch, process)
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_action (
		id BIGSERIAL PRIMARY KEY,
		service_fqid TEXT NOT NULL,
		epoch BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		executed_at TIMESTAMPTZ,
		position BIGINT NOT NULL,
		kind TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_action_send_message (
		action_id BIGINT PRIMARY KEY REFERENCES consensus_action(id),
		to_process TEXT NOT NULL,
		payload BYTEA NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_action_update (
		action_id BIGINT PRIMARY KEY REFERENCES consensus_action(id),
		context_blob JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_action_notify (
		action_id BIGINT PRIMARY KEY REFERENCES consensus_action(id),
		kind TEXT NOT NULL,
		payload BYTEA
	)`,
	`CREATE TABLE IF NOT EXISTS consensus_event (
		id BIGSERIAL PRIMARY KEY,
		service_fqid TEXT NOT NULL,
		epoch BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		executed_at TIMESTAMPTZ,
		event_kind TEXT NOT NULL,
		payload_blob BYTEA
	)`,
	`CREATE TABLE IF NOT EXISTS commit_entries (
		service_fqid TEXT NOT NULL,
		epoch BIGINT NOT NULL,
		value BYTEA,
		decision TEXT,
		PRIMARY KEY (service_fqid, epoch)
	)`,
	`CREATE TABLE IF NOT EXISTS alarms (
		service_fqid TEXT NOT NULL,
		alarm_type TEXT NOT NULL,
		alarm_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (service_fqid, alarm_type)
	)`,
}

// PostgresStore is the primary backend for the Store Command Layer,
// adapted from the teacher's SQLDB (storage/postgres.go) — same
// pgxpool-backed shape, generalized from one fixed YCSB_MAIN table to
// the platform's logical schema and from ad hoc `panic`-on-error helpers
// to returned *errs.Error values.
type PostgresStore struct {
	pool     *pgxpool.Pool
	writes   *ExclusivePool
	log      *logging.Logger
}

// NewPostgresStore connects to databaseURL, applies the schema, and
// returns a ready PostgresStore. writeLockTimeout bounds how long
// PersistActions waits for another PersistActions on the same service
// before giving up (§5 "write-exclusive pool"); ExecuteCommands does not
// take that lock.
func NewPostgresStore(ctx context.Context, databaseURL string, writeLockTimeout time.Duration, log *logging.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, databaseURL)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "connect to postgres", err)
	}
	s := &PostgresStore{pool: pool, writes: NewExclusivePool(writeLockTimeout), log: log.With("store.postgres")}
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "apply schema", err)
		}
	}
	return s, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() { s.pool.Close() }

// ExecuteCommands implements store.StoreCommandExecutor[pgx.Tx] (§4.10):
// every command in the batch runs inside a single transaction, committed
// only if all succeed.
func (s *PostgresStore) ExecuteCommands(ctx context.Context, commands []StoreCommand[pgx.Tx]) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errs.Wrap(errs.KindInternal, "begin transaction", err)
	}
	for _, cmd := range commands {
		if err := cmd.Execute(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errs.Wrap(errs.KindInternal, "commit transaction", err)
	}
	return nil
}

// --- consensus.ActionStore ---

// PersistActions implements consensus.ActionStore.
func (s *PostgresStore) PersistActions(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, actions []consensus.Action) ([]consensus.PersistedAction, error) {
	var persisted []consensus.PersistedAction
	err := s.writes.WithExclusive(ctx, serviceID.String(), func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "begin persist actions", err)
		}
		defer tx.Rollback(ctx)

		var maxPos uint64
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM consensus_action WHERE service_fqid = $1 AND epoch = $2`,
			serviceID.String(), epoch).Scan(&maxPos); err != nil {
			return errs.Wrap(errs.KindInternal, "read max action position", err)
		}

		now := time.Now()
		for i, a := range actions {
			pos := maxPos + uint64(i) + 1
			var id uint64
			if err := tx.QueryRow(ctx,
				`INSERT INTO consensus_action (service_fqid, epoch, created_at, position, kind) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				serviceID.String(), epoch, now, pos, actionKindName(a.Kind)).Scan(&id); err != nil {
				return errs.Wrap(errs.KindInternal, "insert consensus_action", err)
			}
			if err := insertActionChild(ctx, tx, id, a); err != nil {
				return err
			}
			persisted = append(persisted, consensus.PersistedAction{Position: pos, Action: a})
		}
		return tx.Commit(ctx)
	})
	return persisted, err
}

func actionKindName(k consensus.ActionKind) string {
	switch k {
	case consensus.ActionUpdate:
		return "Update"
	case consensus.ActionSendMessage:
		return "SendMessage"
	case consensus.ActionNotify:
		return "Notify"
	default:
		return "Unknown"
	}
}

func insertActionChild(ctx context.Context, tx pgx.Tx, actionID uint64, a consensus.Action) error {
	switch a.Kind {
	case consensus.ActionSendMessage:
		payload, err := json.Marshal(a.Message)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "marshal send message action", err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO consensus_action_send_message (action_id, to_process, payload) VALUES ($1, $2, $3)`,
			actionID, string(a.To), payload)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "insert consensus_action_send_message", err)
		}
	case consensus.ActionUpdate:
		payload, err := json.Marshal(a.NewContext)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "marshal update action", err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO consensus_action_update (action_id, context_blob) VALUES ($1, $2)`, actionID, payload)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "insert consensus_action_update", err)
		}
	case consensus.ActionNotify:
		_, err := tx.Exec(ctx, `INSERT INTO consensus_action_notify (action_id, kind, payload) VALUES ($1, $2, $3)`,
			actionID, fmt.Sprint(a.Notification.Kind), a.Notification.Value)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "insert consensus_action_notify", err)
		}
	}
	return nil
}

// MarkExecuted implements consensus.ActionStore.
func (s *PostgresStore) MarkExecuted(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, position uint64) error {
	_, err := s.pool.Exec(ctx, `UPDATE consensus_action SET executed_at = $1 WHERE service_fqid = $2 AND epoch = $3 AND position = $4`,
		time.Now(), serviceID.String(), epoch, position)
	if err != nil {
		return errs.Wrap(errs.KindInternal, "mark action executed", err)
	}
	return nil
}

// UnexecutedActions implements consensus.ActionStore.
func (s *PostgresStore) UnexecutedActions(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, resumeFrom uint64) ([]consensus.PersistedAction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, position, kind FROM consensus_action
		 WHERE service_fqid = $1 AND epoch = $2 AND position >= $3 AND executed_at IS NULL
		 ORDER BY position`,
		serviceID.String(), epoch, resumeFrom)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "query unexecuted actions", err)
	}
	defer rows.Close()

	var out []consensus.PersistedAction
	for rows.Next() {
		var id, position uint64
		var kind string
		if err := rows.Scan(&id, &position, &kind); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "scan unexecuted action", err)
		}
		action, err := s.loadActionChild(ctx, id, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, consensus.PersistedAction{Position: position, Action: action})
	}
	return out, nil
}

func (s *PostgresStore) loadActionChild(ctx context.Context, actionID uint64, kind string) (consensus.Action, error) {
	switch kind {
	case "SendMessage":
		var to string
		var payload []byte
		if err := s.pool.QueryRow(ctx, `SELECT to_process, payload FROM consensus_action_send_message WHERE action_id = $1`, actionID).
			Scan(&to, &payload); err != nil {
			return consensus.Action{}, errs.Wrap(errs.KindInternal, "load send message action", err)
		}
		var msg consensus.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return consensus.Action{}, errs.Wrap(errs.KindInternal, "unmarshal send message action", err)
		}
		return consensus.Action{Kind: consensus.ActionSendMessage, To: consensus.Process(to), Message: msg}, nil
	case "Notify":
		var notifyKind string
		var payload []byte
		if err := s.pool.QueryRow(ctx, `SELECT kind, payload FROM consensus_action_notify WHERE action_id = $1`, actionID).
			Scan(&notifyKind, &payload); err != nil {
			return consensus.Action{}, errs.Wrap(errs.KindInternal, "load notify action", err)
		}
		n, err := strconv.Atoi(notifyKind)
		if err != nil {
			return consensus.Action{}, errs.Wrap(errs.KindInternal, "parse notify action kind", err)
		}
		return consensus.Action{Kind: consensus.ActionNotify, Notification: consensus.Notification{Kind: consensus.NotificationKind(n), Value: payload}}, nil
	default:
		return consensus.Action{Kind: consensus.ActionUpdate}, nil
	}
}

// --- consensus.EventStore / consensus.CommitEntryStore ---

// AddEvent implements consensus.EventStore.
func (s *PostgresStore) AddEvent(ctx context.Context, serviceID ids.FullyQualifiedServiceID, epoch uint64, kind consensus.NotificationKind, payload []byte) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO consensus_event (service_fqid, epoch, created_at, event_kind, payload_blob) VALUES ($1, $2, $3, $4, $5)`,
		serviceID.String(), epoch, time.Now(), fmt.Sprint(kind), payload)
	if err != nil {
		return errs.Wrap(errs.KindInternal, "insert consensus_event", err)
	}
	return nil
}

// AddCommitEntry implements consensus.CommitEntryStore.
func (s *PostgresStore) AddCommitEntry(ctx context.Context, serviceID ids.FullyQualifiedServiceID, entry consensus.CommitEntry) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO commit_entries (service_fqid, epoch, value, decision) VALUES ($1, $2, $3, $4)
		ON CONFLICT (service_fqid, epoch) DO UPDATE SET value = EXCLUDED.value`,
		serviceID.String(), entry.Epoch, entry.Value, decisionString(entry.Decision))
	if err != nil {
		return errs.Wrap(errs.KindInternal, "insert commit_entries", err)
	}
	return nil
}

// GetLastCommitEntry implements consensus.CommitEntryStore, returning the
// highest-epoch commit entry recorded for serviceID, or nil if none exists.
func (s *PostgresStore) GetLastCommitEntry(ctx context.Context, serviceID ids.FullyQualifiedServiceID) (*consensus.CommitEntry, error) {
	var epoch uint64
	var value []byte
	var decision *string
	err := s.pool.QueryRow(ctx, `SELECT epoch, value, decision FROM commit_entries
		WHERE service_fqid = $1 ORDER BY epoch DESC LIMIT 1`, serviceID.String()).
		Scan(&epoch, &value, &decision)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "select last commit_entries", err)
	}
	entry := &consensus.CommitEntry{Epoch: epoch, Value: value}
	if decision != nil {
		d := consensus.CommitDecision(*decision)
		entry.Decision = &d
	}
	return entry, nil
}

// UpdateCommitEntry implements consensus.CommitEntryStore.
func (s *PostgresStore) UpdateCommitEntry(ctx context.Context, serviceID ids.FullyQualifiedServiceID, entry consensus.CommitEntry) error {
	_, err := s.pool.Exec(ctx, `UPDATE commit_entries SET decision = $1 WHERE service_fqid = $2 AND epoch = $3`,
		decisionString(entry.Decision), serviceID.String(), entry.Epoch)
	if err != nil {
		return errs.Wrap(errs.KindInternal, "update commit_entries", err)
	}
	return nil
}

func decisionString(d *consensus.CommitDecision) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}
