package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"qc-analytics/internal/logging"
	"qc-analytics/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Options tunes a Database. A nil *Options uses the defaults.
type Options struct {
	// Now supplies timestamps for created_at/updated_at/session_start.
	// Defaults to time.Now.
	Now func() time.Time
}

// Database is the QC analytics store.
type Database struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open ensures the parent directory of dbPath exists and opens the store.
// It does not create the schema; call InitDatabase for that.
func Open(ctx context.Context, dbPath string, opts *Options) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newError(ErrDirectoryCreateFailed, "Failed to create database directory", err)
		}
	}

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout lets concurrent writers wait on the WAL lock instead of
	// failing immediately with "database is locked".
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, newError(ErrOpenFailed, "Failed to open database", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, newError(ErrOpenFailed, "Failed to open database", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}
	if opts != nil && opts.Now != nil {
		d.now = opts.Now
	}

	return d, nil
}

// InitDatabase creates the three tables if they are absent, enables WAL
// journaling and applies in-place column migrations. It is safe to call on
// every startup.
func (d *Database) InitDatabase(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("init_database", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	schema := `
	PRAGMA journal_mode=WAL;

	CREATE TABLE IF NOT EXISTS qc_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		qc_name TEXT NOT NULL,
		folder_path TEXT NOT NULL,
		session_start TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
		session_end TEXT,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	);

	CREATE TABLE IF NOT EXISTS qc_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		week_number TEXT,
		qc_date TEXT,
		received_date TEXT,
		namespace TEXT,
		filename TEXT NOT NULL,
		qc_name TEXT,
		qc_decision TEXT,
		qc_observations TEXT,
		retouch_quality TEXT,
		retouch_observations TEXT,
		next_action TEXT,
		image_start_time TEXT,
		image_end_time TEXT,
		time_spent_seconds REAL,
		custom_fields_json TEXT,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
		UNIQUE(session_id, filename),
		FOREIGN KEY (session_id) REFERENCES qc_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	);
	`

	if _, err = d.db.ExecContext(ctx, schema); err != nil {
		return newError(ErrSchema, "Failed to initialize database schema", err)
	}

	if err = d.runMigrations(ctx); err != nil {
		return newError(ErrSchema, "Failed to migrate database schema", err)
	}

	return nil
}

// runMigrations brings files created by earlier releases up to date. Every
// step checks before it changes anything, so a partially applied run can be
// repeated.
func (d *Database) runMigrations(ctx context.Context) error {
	columns := []struct {
		table  string
		column string
		ddl    string
	}{
		{"qc_sessions", "session_end", "ALTER TABLE qc_sessions ADD COLUMN session_end TEXT"},
		{"qc_records", "custom_fields_json", "ALTER TABLE qc_records ADD COLUMN custom_fields_json TEXT"},
	}

	for _, c := range columns {
		var exists bool
		err := d.db.QueryRowContext(ctx,
			"SELECT COUNT(*) > 0 FROM pragma_table_info(?) WHERE name = ?",
			c.table, c.column,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check for %s.%s column: %w", c.table, c.column, err)
		}
		if exists {
			continue
		}

		logging.Info("Migrating database: adding %s column to %s table", c.column, c.table)
		if _, err := d.db.ExecContext(ctx, c.ddl); err != nil {
			return fmt.Errorf("failed to add %s.%s column: %w", c.table, c.column, err)
		}
	}

	_, err := d.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_qc_sessions_qc_name_start ON qc_sessions(qc_name, session_start);
		CREATE INDEX IF NOT EXISTS idx_qc_records_qc_name ON qc_records(qc_name, time_spent_seconds);
	`)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// JournalMode reports the active journal mode ("wal" once initialized).
func (d *Database) JournalMode(ctx context.Context) (string, error) {
	var mode string
	if err := d.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", err
	}
	return mode, nil
}

// CalculateStats counts rows for the metrics collector.
func (d *Database) CalculateStats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("calculate_stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM qc_sessions", &stats.TotalSessions},
		{"SELECT COUNT(*) FROM qc_sessions WHERE session_end IS NULL", &stats.OpenSessions},
		{"SELECT COUNT(*) FROM qc_records", &stats.TotalRecords},
		{"SELECT COUNT(*) FROM qc_records WHERE " + activeFilter, &stats.ActiveRecords},
		{"SELECT COUNT(*) FROM app_settings", &stats.TotalSettings},
	}

	for _, q := range queries {
		if err = d.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return stats, newError(ErrQueryExec, "Failed to calculate stats", err)
		}
	}

	return stats, nil
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	stats, err := d.CalculateStats(context.Background())
	if err != nil {
		logging.Warn("Failed to calculate stats: %v", err)
	}

	return metrics.Stats{
		TotalSessions:   stats.TotalSessions,
		OpenSessions:    stats.OpenSessions,
		TotalRecords:    stats.TotalRecords,
		ActiveRecords:   stats.ActiveRecords,
		TotalSettings:   stats.TotalSettings,
		OpenConnections: d.db.Stats().OpenConnections,
	}
}

// timestamp returns the current time in TimeFormat.
func (d *Database) timestamp() string {
	return FormatTime(d.now())
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// closeRows closes rows and folds a close failure into err.
func closeRows(rows *sql.Rows, err *error) {
	if closeErr := rows.Close(); closeErr != nil && *err == nil {
		*err = closeErr
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error

	// A read-only WAL or SHM file left behind by another user makes every
	// write fail, so try to repair it up front.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		path := dbPath + suffix
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			logging.Debug("Cannot stat %s: %v", path, err)
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Database file is read-only! %s mode: %v", path, info.Mode())
		if suffix == "" {
			continue
		}
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
