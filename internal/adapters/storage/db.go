package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations are applied in order; the index+1 is the schema version stored in PRAGMA user_version.
var migrations = []string{
	// 1: accounts and trainer availability
	`
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS trainer_schedule (
		trainer_id TEXT PRIMARY KEY,
		version INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		updated_by TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS trainer_schedule_day (
		trainer_id TEXT NOT NULL,
		weekday TEXT NOT NULL,
		position INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (trainer_id, weekday),
		FOREIGN KEY (trainer_id) REFERENCES trainer_schedule(trainer_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS trainer_schedule_slot (
		trainer_id TEXT NOT NULL,
		weekday TEXT NOT NULL,
		position INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (trainer_id, weekday, position),
		FOREIGN KEY (trainer_id, weekday) REFERENCES trainer_schedule_day(trainer_id, weekday) ON DELETE CASCADE
	);
	`,
	// 2: PT bookings (read model) and notifications
	`
	CREATE TABLE IF NOT EXISTS scheduled_session (
		id TEXT PRIMARY KEY,
		trainer_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		member_name TEXT NOT NULL DEFAULT '',
		member_phone TEXT NOT NULL DEFAULT '',
		package_id TEXT NOT NULL DEFAULT '',
		package_name TEXT NOT NULL DEFAULT '',
		total_session_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_scheduled_session_trainer ON scheduled_session(trainer_id);

	CREATE TABLE IF NOT EXISTS completed_session (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		completed_on TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (session_id, position),
		FOREIGN KEY (session_id) REFERENCES scheduled_session(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS notification (
		id TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		read_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_notification_recipient ON notification(recipient_id, created_at);
	`,
	// 3: outbound side effects awaiting delivery
	`
	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	`,
}

// LatestSchemaVersion returns the schema version after all migrations.
func LatestSchemaVersion() int {
	return len(migrations)
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// PRE: db is a valid SQLite connection
// POST: All pending migrations applied and user_version updated, each in its own transaction
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", i+1, err)
		}
		slog.Info("schema_migrated", "version", i+1)
	}
	return nil
}
