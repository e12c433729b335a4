package store

import (
	"context"

	"github.com/jackc/pgx/v4"

	"github.com/goccy/go-json"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
	"github.com/splinter-platform/splinter/internal/model"
)

// SaveLifecycleServiceCommand upserts a service's lifecycle_services row,
// the Lifecycle Executor's view of a service's pending command and
// New/Complete status (§4.8), separate from the services table's circuit
// membership row.
func SaveLifecycleServiceCommand(fqid ids.FullyQualifiedServiceID, svc *model.Service) StoreCommand[pgx.Tx] {
	return CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error {
		argsBlob, err := json.Marshal(svc.Arguments)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "marshal lifecycle service arguments", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO lifecycle_services (service_fqid, circuit_id, service_type, arguments_blob, command, status, service_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (service_fqid) DO UPDATE SET
				command = EXCLUDED.command, status = EXCLUDED.status,
				service_status = EXCLUDED.service_status, arguments_blob = EXCLUDED.arguments_blob
		`, fqid.String(), string(fqid.CircuitID()), svc.ServiceType, argsBlob,
			string(svc.PendingCommand), string(svc.LifecycleStatus), string(svc.Status))
		if err != nil {
			return errs.Wrap(errs.KindInternal, "upsert lifecycle service", err)
		}
		return nil
	})
}

// DeleteLifecycleServiceCommand removes a service's lifecycle_services row
// once it has reached LifecycleComplete for the Purge command and has no
// further work queued.
func DeleteLifecycleServiceCommand(fqid ids.FullyQualifiedServiceID) StoreCommand[pgx.Tx] {
	return CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lifecycle_services WHERE service_fqid = $1`, fqid.String()); err != nil {
			return errs.Wrap(errs.KindInternal, "delete lifecycle service", err)
		}
		return nil
	})
}

// ListPendingLifecycleServices returns every lifecycle_services row whose
// status is LifecycleNew, optionally filtered to a single serviceType,
// mirroring LifecycleStore::list_services(&LifecycleStatus::New).
func (s *PostgresStore) ListPendingLifecycleServices(ctx context.Context, serviceType string) ([]LifecycleServiceRow, error) {
	var rows pgx.Rows
	var err error
	if serviceType == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT service_fqid, circuit_id, service_type, arguments_blob, command, status, service_status
			FROM lifecycle_services WHERE status = $1
		`, string(model.LifecycleNew))
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT service_fqid, circuit_id, service_type, arguments_blob, command, status, service_status
			FROM lifecycle_services WHERE status = $1 AND service_type = $2
		`, string(model.LifecycleNew), serviceType)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "list pending lifecycle services", err)
	}
	defer rows.Close()

	var out []LifecycleServiceRow
	for rows.Next() {
		var r LifecycleServiceRow
		if err := rows.Scan(&r.ServiceFQID, &r.CircuitID, &r.ServiceType, &r.ArgumentsBlob, &r.Command, &r.Status, &r.ServiceStatus); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "scan lifecycle service", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// AllServicesFinalized reports whether circuitID has at least one tracked
// service and every one of them has reached ServiceStatusFinalized or
// beyond, the gate the Orchestrator watches to emit admin.EventCircuitReady
// (§4.6 step 6).
func (s *PostgresStore) AllServicesFinalized(ctx context.Context, circuitID ids.CircuitID) (bool, error) {
	var total, unfinalized int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE service_status NOT IN ($2, $3, $4))
		FROM lifecycle_services WHERE circuit_id = $1
	`, string(circuitID), string(model.ServiceStatusFinalized), string(model.ServiceStatusRetired), string(model.ServiceStatusPurged)).
		Scan(&total, &unfinalized)
	if err != nil {
		return false, errs.Wrap(errs.KindInternal, "check circuit services finalized", err)
	}
	return total > 0 && unfinalized == 0, nil
}

// ServiceTypeFor looks up a live service's type by its fully qualified id,
// the join the Timer/Alarm Engine needs to pick which HandlerFactory
// handles a fired alarm (the alarms table itself only knows the fqid).
func (s *PostgresStore) ServiceTypeFor(ctx context.Context, serviceFQID string) (string, error) {
	var serviceType string
	err := s.pool.QueryRow(ctx, `SELECT service_type FROM lifecycle_services WHERE service_fqid = $1`, serviceFQID).Scan(&serviceType)
	if err == pgx.ErrNoRows {
		return "", errs.Newf(errs.KindConstraintNotFound, "no lifecycle service for %q", serviceFQID)
	}
	if err != nil {
		return "", errs.Wrap(errs.KindInternal, "look up service type", err)
	}
	return serviceType, nil
}

// ToService decodes a LifecycleServiceRow back into the model.Service the
// Lifecycle Executor reasons about, parsing its fully qualified id and
// argument blob.
func (r LifecycleServiceRow) ToService() (ids.FullyQualifiedServiceID, *model.Service, error) {
	fqid, err := ids.ParseFullyQualifiedServiceID(r.ServiceFQID)
	if err != nil {
		return ids.FullyQualifiedServiceID{}, nil, errs.Wrap(errs.KindInternal, "parse lifecycle service fqid", err)
	}
	var args []model.ServiceArgument
	if err := json.Unmarshal(r.ArgumentsBlob, &args); err != nil {
		return ids.FullyQualifiedServiceID{}, nil, errs.Wrap(errs.KindInternal, "unmarshal lifecycle service arguments", err)
	}
	status := model.ServiceStatus(r.ServiceStatus)
	if status == "" {
		status = model.ServiceStatusNew
	}
	svc := &model.Service{
		ServiceID:       fqid,
		ServiceType:     r.ServiceType,
		Arguments:       args,
		Status:          status,
		PendingCommand:  model.LifecycleCommand(r.Command),
		LifecycleStatus: model.LifecycleStatus(r.Status),
	}
	return fqid, svc, nil
}
