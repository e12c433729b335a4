// Package store implements the Store Command Layer (§4.10): a
// unit-of-work abstraction executed atomically against a backing
// database, plus the logical schema (§6) that backs circuits,
// proposals, services, and the 2PC consensus core.
//
// Grounded on the teacher's storage package: `storage/postgres.go`'s
// pgxpool usage and `storage/manager.go`'s single-entry-point shape for
// the Postgres-backed StoreCommandExecutor, `storage/mongo.go` for the
// alternate trie-state backend, `storage/log_manager.go` for the local
// durability log, and `locks/rw_lock.go` for the write-exclusive pool
// (here replaced by `github.com/viney-shih/go-lock`, a real dependency
// doing the same job the teacher hand-rolled).
package store

import "time"

// CircuitRow is the circuits table (§6).
type CircuitRow struct {
	CircuitID   string
	AuthType    string
	Persistence string
	Durable     bool
	Routing     string
	Management  string
	DisplayName string
	Version     int
	Status      string
}

// CircuitMemberRow is the circuit_members table.
type CircuitMemberRow struct {
	CircuitID string
	NodeID    string
	Position  int
	PublicKey []byte
}

// NodeEndpointRow is the node_endpoints table.
type NodeEndpointRow struct {
	NodeID   string
	Endpoint string
}

// ServiceRow is the services table.
type ServiceRow struct {
	CircuitID   string
	ServiceID   string
	ServiceType string
	OwningNode  string
}

// ServiceArgumentRow is the service_arguments table.
type ServiceArgumentRow struct {
	CircuitID string
	ServiceID string
	Key       string
	Value     string
}

// ProposalRow is the proposals table. CircuitSnapshot is the
// goccy/go-json-encoded ProposedCircuit, kept as an opaque blob so the
// row doesn't need a column per circuit field and so gjson can inspect
// it without a full unmarshal (§6 "circuit_snapshot_blob").
type ProposalRow struct {
	CircuitID       string
	RequesterKey    []byte
	RequesterNodeID string
	CircuitSnapshot []byte
	Status          string
}

// ProposalVoteRow is the proposal_votes table.
type ProposalVoteRow struct {
	CircuitID   string
	VoterNodeID string
	Vote        string
	VoterKey    []byte
}

// LifecycleServiceRow is the lifecycle_services table. Status is the
// LifecycleStatus (New/Complete) the Executor polls on; ServiceStatus is
// the service's overall New/Prepared/Finalized/Retired/Purged position,
// tracked separately so a circuit's readiness can be queried without
// decoding every row.
type LifecycleServiceRow struct {
	ServiceFQID   string
	CircuitID     string
	ServiceType   string
	ArgumentsBlob []byte
	Command       string
	Status        string
	ServiceStatus string
}

// ConsensusContextRow is the consensus_context table. StateExtraBlob
// carries whichever of RoleContext's coordinator/participant fields
// apply, goccy/go-json-encoded, so the row schema doesn't need a column
// per role.
type ConsensusContextRow struct {
	ServiceFQID     string
	Epoch           uint64
	Coordinator     string
	LastCommitEpoch *uint64
	Alarm           *time.Time
	StateEnum       string
	StateExtraBlob  []byte
}

// ConsensusContextParticipantRow is the consensus_context_participant table.
type ConsensusContextParticipantRow struct {
	ServiceFQID string
	Epoch       uint64
	Process     string
	Vote        *bool
}

// ConsensusActionRow is the consensus_action table's shared columns; the
// per-kind child table rows (SendMessage/Update/Notify) are below.
type ConsensusActionRow struct {
	ID          uint64
	ServiceFQID string
	Epoch       uint64
	CreatedAt   time.Time
	ExecutedAt  *time.Time
	Position    uint64
	Kind        string
}

// ConsensusActionSendMessageRow is the consensus_action child table for
// ActionSendMessage rows.
type ConsensusActionSendMessageRow struct {
	ActionID uint64
	To       string
	Payload  []byte
}

// ConsensusActionUpdateRow is the consensus_action child table for
// ActionUpdate rows.
type ConsensusActionUpdateRow struct {
	ActionID   uint64
	ContextRow ConsensusContextRow
}

// ConsensusActionNotifyRow is the consensus_action child table for
// ActionNotify rows.
type ConsensusActionNotifyRow struct {
	ActionID uint64
	Kind     string
	Payload  []byte
}

// ConsensusEventRow is the consensus_event table.
type ConsensusEventRow struct {
	ID          uint64
	ServiceFQID string
	Epoch       uint64
	CreatedAt   time.Time
	ExecutedAt  *time.Time
	EventKind   string
	PayloadBlob []byte
}

// CommitEntryRow is the commit_entries table.
type CommitEntryRow struct {
	ServiceFQID string
	Epoch       uint64
	Value       []byte
	Decision    *string
}

// AlarmRow is the alarms table.
type AlarmRow struct {
	ServiceFQID string
	AlarmType   string
	AlarmAt     time.Time
}
