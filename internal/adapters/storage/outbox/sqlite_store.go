package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"billionsgym/internal/adapters/storage"
	domain "billionsgym/internal/domain/outbox"
)

const entryColumns = "id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an entry (insert or update). created_at never changes after insert.
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO outbox ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			`ON CONFLICT(id) DO UPDATE SET
			   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
			   last_attempted_at=excluded.last_attempted_at, external_id=excluded.external_id,
			   error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.NullTime(e.LastAttemptedAt), storage.FormatTime(e.CreatedAt), e.ExternalID, e.ErrorMessage,
	)
	return err
}

// ListPending returns entries still to be delivered, oldest first.
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM outbox WHERE status IN (?, ?) ORDER BY created_at, id LIMIT ?",
		domain.StatusPending, domain.StatusRetrying, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt string
	var lastAttemptedAt sql.NullString
	if err := scan(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage); err != nil {
		return domain.Entry{}, err
	}
	var err error
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox %s: %w", e.ID, err)
	}
	if e.LastAttemptedAt, err = storage.ParseNullTime(lastAttemptedAt); err != nil {
		return domain.Entry{}, fmt.Errorf("outbox %s: %w", e.ID, err)
	}
	return e, nil
}
