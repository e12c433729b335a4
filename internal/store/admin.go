package store

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/goccy/go-json"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/model"
)

// SaveProposalCommand inserts or updates a proposal row and replaces its
// vote rows wholesale, grounded on the same "whole-aggregate upsert in
// one StoreCommand" shape PersistActions already uses for consensus
// actions.
func SaveProposalCommand(p *model.CircuitProposal) StoreCommand[pgx.Tx] {
	return CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error {
		snapshot, err := json.Marshal(p.Circuit)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "marshal proposed circuit snapshot", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO proposals (circuit_id, requester_key, requester_node_id, circuit_snapshot_blob, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (circuit_id) DO UPDATE SET status = EXCLUDED.status, circuit_snapshot_blob = EXCLUDED.circuit_snapshot_blob
		`, string(p.CircuitID), []byte(p.RequesterKey), string(p.RequesterNodeID), snapshot, string(p.Status))
		if err != nil {
			return errs.Wrap(errs.KindInternal, "upsert proposal", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM proposal_votes WHERE circuit_id = $1`, string(p.CircuitID)); err != nil {
			return errs.Wrap(errs.KindInternal, "clear proposal votes", err)
		}
		for _, v := range p.Votes {
			_, err := tx.Exec(ctx, `
				INSERT INTO proposal_votes (circuit_id, voter_node_id, vote, voter_key)
				VALUES ($1, $2, $3, $4)
			`, string(p.CircuitID), string(v.VoterNodeID), string(v.Decision), []byte(v.VoterKey))
			if err != nil {
				return errs.Wrap(errs.KindInternal, "insert proposal vote", err)
			}
		}
		return nil
	})
}

// MaterializeCircuitCommand writes a ratified proposal's Circuit into the
// circuits/circuit_members/node_endpoints/services/service_arguments
// tables and marks the source proposal Accepted, all inside the single
// transaction ExecuteCommands already provides — the "unanimity ->
// materialize in one Store Command transaction" requirement (§4.6).
func MaterializeCircuitCommand(c *model.Circuit, sourceProposalID ids.CircuitID) StoreCommand[pgx.Tx] {
	return CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO circuits (circuit_id, auth_type, persistence, durable, routing, management, display_name, version, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (circuit_id) DO UPDATE SET
				version = EXCLUDED.version, status = EXCLUDED.status
		`, string(c.CircuitID), string(c.AuthType), string(c.Persistence), c.Durable,
			string(c.Routing), string(c.Management), c.DisplayName, c.Version, string(c.Status))
		if err != nil {
			return errs.Wrap(errs.KindInternal, "upsert circuit", err)
		}

		for i, m := range c.Members {
			_, err := tx.Exec(ctx, `
				INSERT INTO circuit_members (circuit_id, node_id, position, public_key)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (circuit_id, node_id) DO NOTHING
			`, string(c.CircuitID), string(m.NodeID), i, []byte(m.PublicKey))
			if err != nil {
				return errs.Wrap(errs.KindInternal, "insert circuit member", err)
			}
			for _, endpoint := range m.Endpoints {
				_, err := tx.Exec(ctx, `
					INSERT INTO node_endpoints (node_id, endpoint)
					VALUES ($1, $2)
					ON CONFLICT DO NOTHING
				`, string(m.NodeID), endpoint)
				if err != nil {
					return errs.Wrap(errs.KindInternal, "insert node endpoint", err)
				}
			}
		}

		for _, svc := range c.Roster {
			_, err := tx.Exec(ctx, `
				INSERT INTO services (circuit_id, service_id, service_type, owning_node_id)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (circuit_id, service_id) DO NOTHING
			`, string(c.CircuitID), string(svc.ServiceID), svc.ServiceType, string(svc.OwningNode))
			if err != nil {
				return errs.Wrap(errs.KindInternal, "insert service", err)
			}
			for _, arg := range svc.Arguments {
				_, err := tx.Exec(ctx, `
					INSERT INTO service_arguments (circuit_id, service_id, key, value)
					VALUES ($1, $2, $3, $4)
					ON CONFLICT (circuit_id, service_id, key) DO UPDATE SET value = EXCLUDED.value
				`, string(c.CircuitID), string(svc.ServiceID), arg.Key, arg.Value)
				if err != nil {
					return errs.Wrap(errs.KindInternal, "insert service argument", err)
				}
			}
		}

		_, err = tx.Exec(ctx, `UPDATE proposals SET status = $1 WHERE circuit_id = $2`,
			string(model.ProposalAccepted), string(sourceProposalID))
		if err != nil {
			return errs.Wrap(errs.KindInternal, "mark proposal accepted", err)
		}
		return nil
	})
}

// LoadProposal reads a proposal and its votes back from circuitID,
// reporting KindConstraintNotFound if none exists.
func (s *PostgresStore) LoadProposal(ctx context.Context, circuitID ids.CircuitID) (*model.CircuitProposal, error) {
	var requesterKey []byte
	var requesterNodeID, status string
	var snapshot []byte
	err := s.pool.QueryRow(ctx, `
		SELECT requester_key, requester_node_id, circuit_snapshot_blob, status
		FROM proposals WHERE circuit_id = $1
	`, string(circuitID)).Scan(&requesterKey, &requesterNodeID, &snapshot, &status)
	if err == pgx.ErrNoRows {
		return nil, errs.Newf(errs.KindConstraintNotFound, "no proposal for circuit %q", circuitID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "load proposal", err)
	}

	var proposed model.ProposedCircuit
	if err := json.Unmarshal(snapshot, &proposed); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "unmarshal proposed circuit snapshot", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT voter_node_id, vote, voter_key FROM proposal_votes WHERE circuit_id = $1
	`, string(circuitID))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "load proposal votes", err)
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		var voterNodeID, vote string
		var voterKey []byte
		if err := rows.Scan(&voterNodeID, &vote, &voterKey); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "scan proposal vote", err)
		}
		votes = append(votes, model.Vote{
			VoterNodeID: ids.NodeID(voterNodeID),
			VoterKey:    ids.PublicKey(voterKey),
			Decision:    model.VoteDecision(vote),
		})
	}

	return &model.CircuitProposal{
		CircuitID:       circuitID,
		Circuit:         proposed,
		RequesterKey:    ids.PublicKey(requesterKey),
		RequesterNodeID: ids.NodeID(requesterNodeID),
		Votes:           votes,
		Status:          model.ProposalStatus(status),
	}, nil
}

// LoadCircuit reads a materialized circuit back by id, reporting
// KindConstraintNotFound if none exists.
func (s *PostgresStore) LoadCircuit(ctx context.Context, circuitID ids.CircuitID) (*model.Circuit, error) {
	c := &model.Circuit{CircuitID: circuitID}
	var authType, persistence, routing, management, status string
	err := s.pool.QueryRow(ctx, `
		SELECT auth_type, persistence, durable, routing, management, display_name, version, status
		FROM circuits WHERE circuit_id = $1
	`, string(circuitID)).Scan(&authType, &persistence, &c.Durable, &routing, &management, &c.DisplayName, &c.Version, &status)
	if err == pgx.ErrNoRows {
		return nil, errs.Newf(errs.KindConstraintNotFound, "no circuit %q", circuitID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "load circuit", err)
	}
	c.AuthType = model.AuthorizationType(authType)
	c.Persistence = model.PersistenceType(persistence)
	c.Routing = model.RoutingMode(routing)
	c.Management = model.ManagementType(management)
	c.Status = model.CircuitStatus(status)

	memberRows, err := s.pool.Query(ctx, `
		SELECT node_id, public_key FROM circuit_members WHERE circuit_id = $1 ORDER BY position
	`, string(circuitID))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "load circuit members", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var nodeID string
		var pubKey []byte
		if err := memberRows.Scan(&nodeID, &pubKey); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "scan circuit member", err)
		}
		endpointRows, err := s.pool.Query(ctx, `SELECT endpoint FROM node_endpoints WHERE node_id = $1`, nodeID)
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, "load node endpoints", err)
		}
		var endpoints []string
		for endpointRows.Next() {
			var e string
			if err := endpointRows.Scan(&e); err != nil {
				endpointRows.Close()
				return nil, errs.Wrap(errs.KindInternal, "scan node endpoint", err)
			}
			endpoints = append(endpoints, e)
		}
		endpointRows.Close()
		c.Members = append(c.Members, model.Member{NodeID: ids.NodeID(nodeID), Endpoints: endpoints, PublicKey: ids.PublicKey(pubKey)})
	}

	serviceRows, err := s.pool.Query(ctx, `
		SELECT service_id, service_type, owning_node_id FROM services WHERE circuit_id = $1
	`, string(circuitID))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "load services", err)
	}
	defer serviceRows.Close()
	for serviceRows.Next() {
		var serviceID, serviceType, owningNode string
		if err := serviceRows.Scan(&serviceID, &serviceType, &owningNode); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "scan service", err)
		}
		c.Roster = append(c.Roster, model.RosterEntry{
			ServiceID:   ids.ServiceID(serviceID),
			ServiceType: serviceType,
			OwningNode:  ids.NodeID(owningNode),
		})
	}
	return c, nil
}
