package database

import (
	"context"
	"time"
)

// SaveAppSetting stores value under key. The last write wins.
func (d *Database) SaveAppSetting(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("save_app_setting", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return newError(ErrQueryPrepare, "Failed to prepare setting upsert", err)
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx, key, value, d.timestamp()); err != nil {
		return execError("Failed to save setting", err)
	}

	return nil
}

// LoadAppSettings returns every stored setting ordered by key.
func (d *Database) LoadAppSettings(ctx context.Context) (settings []AppSetting, err error) {
	start := time.Now()
	defer func() { recordQuery("load_app_settings", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stmt, err := d.db.PrepareContext(ctx, "SELECT key, value FROM app_settings ORDER BY key")
	if err != nil {
		return nil, newError(ErrQueryPrepare, "Failed to prepare settings query", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, execError("Failed to load settings", err)
	}
	defer closeRows(rows, &err)

	settings = []AppSetting{}
	for rows.Next() {
		var s AppSetting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, newError(ErrRowMapping, "Failed to read setting row", err)
		}
		settings = append(settings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, newError(ErrQueryExec, "Failed to iterate settings", err)
	}

	return settings, nil
}
