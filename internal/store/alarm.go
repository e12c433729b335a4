package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/splinter-platform/splinter/internal/errs"
)

// SetAlarmCommand upserts the due time for (serviceFQID, alarmType) — the
// Timer/Alarm Engine's durable record of when a service next wants to be
// woken up for a given alarm kind (crash-failure timeout, 2PC vote/decision
// timeout, ...).
func SetAlarmCommand(serviceFQID string, alarmType string, at time.Time) StoreCommand[pgx.Tx] {
	return CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO alarms (service_fqid, alarm_type, alarm_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (service_fqid, alarm_type) DO UPDATE SET alarm_at = EXCLUDED.alarm_at
		`, serviceFQID, alarmType, at)
		if err != nil {
			return errs.Wrap(errs.KindInternal, "upsert alarm", err)
		}
		return nil
	})
}

// ClearAlarmCommand removes a (serviceFQID, alarmType) alarm, e.g. once
// its handler has run or the triggering condition no longer applies.
func ClearAlarmCommand(serviceFQID string, alarmType string) StoreCommand[pgx.Tx] {
	return CommandFunc[pgx.Tx](func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM alarms WHERE service_fqid = $1 AND alarm_type = $2`, serviceFQID, alarmType); err != nil {
			return errs.Wrap(errs.KindInternal, "clear alarm", err)
		}
		return nil
	})
}

// ClearAlarm deletes a (serviceFQID, alarmType) alarm directly, outside of
// a StoreCommand batch, the way the Timer Engine clears an alarm it just
// fired without needing it atomic with anything else.
func (s *PostgresStore) ClearAlarm(ctx context.Context, serviceFQID, alarmType string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM alarms WHERE service_fqid = $1 AND alarm_type = $2`, serviceFQID, alarmType); err != nil {
		return errs.Wrap(errs.KindInternal, "clear alarm", err)
	}
	return nil
}

// ListDueAlarms returns every alarm at or before asOf, across all services
// and alarm types — the Timer/Alarm Engine's single wake loop polls this
// on every tick rather than scheduling one OS timer per alarm.
func (s *PostgresStore) ListDueAlarms(ctx context.Context, asOf time.Time) ([]AlarmRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT service_fqid, alarm_type, alarm_at FROM alarms WHERE alarm_at <= $1
	`, asOf)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "list due alarms", err)
	}
	defer rows.Close()

	var out []AlarmRow
	for rows.Next() {
		var r AlarmRow
		if err := rows.Scan(&r.ServiceFQID, &r.AlarmType, &r.AlarmAt); err != nil {
			return nil, errs.Wrap(errs.KindInternal, "scan alarm", err)
		}
		out = append(out, r)
	}
	return out, nil
}
