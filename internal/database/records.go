package database

import (
	"context"
	"time"
)

// SaveQCRecord writes the record for (SessionID, Filename) in a single
// upsert. On conflict every mutable column is replaced, including nil
// optionals which clear the stored value; id and created_at are kept and
// updated_at is refreshed.
func (d *Database) SaveQCRecord(ctx context.Context, rec QCRecordPayload) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_qc_record", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := d.timestamp()

	stmt, err := d.db.PrepareContext(ctx, `
		INSERT INTO qc_records (
			session_id, week_number, qc_date, received_date, namespace, filename,
			qc_name, qc_decision, qc_observations, retouch_quality,
			retouch_observations, next_action, image_start_time, image_end_time,
			time_spent_seconds, custom_fields_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, filename) DO UPDATE SET
			week_number = excluded.week_number,
			qc_date = excluded.qc_date,
			received_date = excluded.received_date,
			namespace = excluded.namespace,
			qc_name = excluded.qc_name,
			qc_decision = excluded.qc_decision,
			qc_observations = excluded.qc_observations,
			retouch_quality = excluded.retouch_quality,
			retouch_observations = excluded.retouch_observations,
			next_action = excluded.next_action,
			image_start_time = excluded.image_start_time,
			image_end_time = excluded.image_end_time,
			time_spent_seconds = excluded.time_spent_seconds,
			custom_fields_json = excluded.custom_fields_json,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return newError(ErrQueryPrepare, "Failed to prepare QC record upsert", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		rec.SessionID,
		rec.WeekNumber,
		rec.QCDate,
		rec.ReceivedDate,
		rec.Namespace,
		rec.Filename,
		rec.QCName,
		rec.QCDecision,
		rec.QCObservations,
		rec.RetouchQuality,
		rec.RetouchObservations,
		rec.NextAction,
		rec.ImageStartTime,
		rec.ImageEndTime,
		rec.TimeSpentSeconds,
		rec.CustomFieldsJSON,
		now,
		now,
	)
	if err != nil {
		return execError("Failed to save QC record", err)
	}

	return nil
}

// GetQCRecord returns the stored record for (sessionID, filename).
func (d *Database) GetQCRecord(ctx context.Context, sessionID int64, filename string) (rec *QCRecord, err error) {
	start := time.Now()
	defer func() { recordQuery("get_qc_record", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		SELECT id, session_id, COALESCE(week_number, ''), COALESCE(qc_date, ''),
			COALESCE(received_date, ''), COALESCE(namespace, ''), filename,
			COALESCE(qc_name, ''), COALESCE(qc_decision, ''),
			COALESCE(qc_observations, ''), COALESCE(retouch_quality, ''),
			COALESCE(retouch_observations, ''), COALESCE(next_action, ''),
			image_start_time, image_end_time, time_spent_seconds,
			custom_fields_json, created_at, updated_at
		FROM qc_records
		WHERE session_id = ? AND filename = ?
	`)
	if err != nil {
		return nil, newError(ErrQueryPrepare, "Failed to prepare QC record query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, sessionID, filename)
	if err != nil {
		return nil, execError("Failed to query QC record", err)
	}
	defer closeRows(rows, &err)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, newError(ErrQueryExec, "Failed to query QC record", err)
		}
		return nil, nil
	}

	rec = &QCRecord{}
	err = rows.Scan(
		&rec.ID, &rec.SessionID, &rec.WeekNumber, &rec.QCDate,
		&rec.ReceivedDate, &rec.Namespace, &rec.Filename,
		&rec.QCName, &rec.QCDecision,
		&rec.QCObservations, &rec.RetouchQuality,
		&rec.RetouchObservations, &rec.NextAction,
		&rec.ImageStartTime, &rec.ImageEndTime, &rec.TimeSpentSeconds,
		&rec.CustomFieldsJSON, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, newError(ErrRowMapping, "Failed to read QC record row", err)
	}

	return rec, nil
}
