package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"billionsgym/internal/adapters/storage"
	domain "billionsgym/internal/domain/notification"
)

// DefaultListLimit caps ListByRecipient when the filter has no limit.
const DefaultListLimit = 50

const notificationColumns = "id, recipient_id, kind, title, body, created_at, read_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new notification store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Notification by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+notificationColumns+" FROM notification WHERE id = ?", id)
	entity, err := scanNotification(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notification{}, fmt.Errorf("notification not found: %w", err)
	}
	return entity, err
}

// Save persists a Notification (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notification ("+notificationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET kind=excluded.kind, title=excluded.title, body=excluded.body, read_at=excluded.read_at",
		entity.ID, entity.RecipientID, entity.Kind, entity.Title, entity.Body,
		storage.FormatTime(entity.CreatedAt), storage.NullTime(entity.ReadAt),
	)
	return err
}

// ListByRecipient returns a recipient's notifications, newest first.
// POST: Returns an empty (non-nil) slice when there are none
func (s *SQLiteStore) ListByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]domain.Notification, error) {
	var q strings.Builder
	q.WriteString("SELECT " + notificationColumns + " FROM notification WHERE recipient_id = ?")
	if filter.UnreadOnly {
		q.WriteString(" AND read_at IS NULL")
	}
	q.WriteString(" ORDER BY created_at DESC, id LIMIT ?")

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, q.String(), recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Notification{}
	for rows.Next() {
		entity, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// CountUnread returns the number of unread notifications for a recipient.
func (s *SQLiteStore) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notification WHERE recipient_id = ? AND read_at IS NULL", recipientID,
	).Scan(&count)
	return count, err
}

func scanNotification(scan func(dest ...any) error) (domain.Notification, error) {
	var n domain.Notification
	var createdAt string
	var readAt sql.NullString
	if err := scan(&n.ID, &n.RecipientID, &n.Kind, &n.Title, &n.Body, &createdAt, &readAt); err != nil {
		return domain.Notification{}, err
	}
	n.CreatedAt, _ = storage.ParseTime(createdAt)
	n.ReadAt, _ = storage.ParseNullTime(readAt)
	return n, nil
}
