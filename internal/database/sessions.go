package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CreateSession inserts a new QC session and returns its id. Ids strictly
// increase across the lifetime of the file.
func (d *Database) CreateSession(ctx context.Context, qcName, folderPath string) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("create_session", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := d.timestamp()

	stmt, err := d.db.PrepareContext(ctx, `
		INSERT INTO qc_sessions (qc_name, folder_path, session_start, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, newError(ErrQueryPrepare, "Failed to prepare session insert", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, qcName, folderPath, now, now)
	if err != nil {
		return 0, execError("Failed to create session", err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, newError(ErrQueryExec, "Failed to read new session id", err)
	}

	return id, nil
}

// GetSessionHistory returns every session of qcName, newest first. Sessions
// sharing a start time are ordered by descending id. The result is empty,
// never nil, when the reviewer has no sessions.
func (d *Database) GetSessionHistory(ctx context.Context, qcName string) (sessions []SessionSummary, err error) {
	start := time.Now()
	defer func() { recordQuery("get_session_history", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		SELECT id, qc_name, folder_path, session_start, session_end, created_at
		FROM qc_sessions
		WHERE qc_name = ?
		ORDER BY session_start DESC, id DESC
	`)
	if err != nil {
		return nil, newError(ErrQueryPrepare, "Failed to prepare session history query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, qcName)
	if err != nil {
		return nil, execError("Failed to query session history", err)
	}
	defer closeRows(rows, &err)

	sessions = []SessionSummary{}
	for rows.Next() {
		var s SessionSummary
		var end sql.NullString
		if err := rows.Scan(&s.ID, &s.QCName, &s.FolderPath, &s.SessionStart, &end, &s.CreatedAt); err != nil {
			return nil, newError(ErrRowMapping, "Failed to read session row", err)
		}
		if end.Valid {
			s.SessionEnd = &end.String
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(ErrQueryExec, "Failed to iterate session history", err)
	}

	return sessions, nil
}

// EndSession stamps session_end on an open session. Ending a session twice
// keeps the first end time.
func (d *Database) EndSession(ctx context.Context, sessionID int64) (err error) {
	start := time.Now()
	defer func() { recordQuery("end_session", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var existing sql.NullString
	err = d.db.QueryRowContext(ctx,
		"SELECT session_end FROM qc_sessions WHERE id = ?", sessionID,
	).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return newError(ErrSessionNotFound, "Failed to end session", err)
	}
	if err != nil {
		return execError("Failed to end session", err)
	}
	if existing.Valid {
		return nil
	}

	_, err = d.db.ExecContext(ctx,
		"UPDATE qc_sessions SET session_end = ? WHERE id = ? AND session_end IS NULL",
		d.timestamp(), sessionID,
	)
	if err != nil {
		return execError("Failed to end session", err)
	}

	return nil
}
