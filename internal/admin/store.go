// Package admin implements the Admin Circuit Proposal Protocol (§4.6):
// propose/vote/materialize or reject, plus a subscribable event log of
// everything the admin service does.
//
// Grounded on the teacher's network/coordinator/txn_handler.go
// vote-counting idiom (createIfNotExistTxnHandler/Next, tallying votes
// against an expected count under a lock) adapted from "commit once N
// votes arrive" to "materialize once every non-requester member has
// voted Accept, reject as soon as any member votes Reject", and on
// original_source/libsplinter/src/admin/store/{circuit,proposal}.rs for
// the proposal/circuit row shapes this package persists through
// internal/store.
package admin

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/model"
	"github.com/splinter-platform/splinter/internal/store"
)

// ProposalStore is the persistence surface admin needs: the generic
// StoreCommandExecutor for transactional writes, plus the two read paths
// concrete to this domain (PostgresStore satisfies this without change).
type ProposalStore interface {
	store.StoreCommandExecutor[pgx.Tx]
	LoadProposal(ctx context.Context, circuitID ids.CircuitID) (*model.CircuitProposal, error)
	LoadCircuit(ctx context.Context, circuitID ids.CircuitID) (*model.Circuit, error)
}
