package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"billionsgym/internal/adapters/storage"
	domain "billionsgym/internal/domain/booking"
)

const sessionColumns = "id, trainer_id, member_id, member_name, member_phone, package_id, package_name, total_session_count, status, start_date, end_date"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new booking store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a ScheduledSession with its completed sessions.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.ScheduledSession, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM scheduled_session WHERE id = ?", id)
	entity, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScheduledSession{}, fmt.Errorf("scheduled session not found: %w", err)
	}
	if err != nil {
		return domain.ScheduledSession{}, err
	}
	completed, err := s.completedFor(ctx, []string{entity.ID})
	if err != nil {
		return domain.ScheduledSession{}, err
	}
	entity.CompletedSessions = completed[entity.ID]
	return entity, nil
}

// Save persists a ScheduledSession and replaces its completed sessions.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.ScheduledSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO scheduled_session ("+sessionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET trainer_id=excluded.trainer_id, member_id=excluded.member_id, member_name=excluded.member_name, "+
			"member_phone=excluded.member_phone, package_id=excluded.package_id, package_name=excluded.package_name, "+
			"total_session_count=excluded.total_session_count, status=excluded.status, start_date=excluded.start_date, end_date=excluded.end_date",
		entity.ID, entity.TrainerID, entity.Member.ID, entity.Member.Name, entity.Member.Phone,
		entity.Package.ID, entity.Package.Name, entity.TotalSessionCount, entity.Status,
		storage.FormatTime(entity.StartDate), storage.NullTime(entity.EndDate),
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM completed_session WHERE session_id = ?", entity.ID); err != nil {
		return err
	}
	for i, c := range entity.CompletedSessions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO completed_session (session_id, position, completed_on, note) VALUES (?, ?, ?, ?)",
			entity.ID, i, storage.FormatTime(c.Date), c.Note,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByTrainerID retrieves a trainer's sessions ordered by start date, then member name.
// PRE: trainerID is non-empty
// POST: Returns an empty (non-nil) slice when the trainer has no sessions
func (s *SQLiteStore) ListByTrainerID(ctx context.Context, trainerID string) ([]domain.ScheduledSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM scheduled_session WHERE trainer_id = ? ORDER BY start_date, member_name", trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.ScheduledSession{}
	var ids []string
	for rows.Next() {
		entity, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
		ids = append(ids, entity.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	completed, err := s.completedFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].CompletedSessions = completed[results[i].ID]
	}
	return results, nil
}

// completedFor loads completed sessions keyed by session ID; every ID gets a non-nil slice.
func (s *SQLiteStore) completedFor(ctx context.Context, ids []string) (map[string][]domain.CompletedSession, error) {
	out := make(map[string][]domain.CompletedSession, len(ids))
	for _, id := range ids {
		out[id] = []domain.CompletedSession{}
	}
	for _, id := range ids {
		rows, err := s.db.QueryContext(ctx,
			"SELECT completed_on, note FROM completed_session WHERE session_id = ? ORDER BY position", id)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var on string
			var c domain.CompletedSession
			if err := rows.Scan(&on, &c.Note); err != nil {
				rows.Close()
				return nil, err
			}
			c.Date, _ = storage.ParseTime(on)
			out[id] = append(out[id], c)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scanSession extracts a ScheduledSession from a row scanner function.
func scanSession(scan func(dest ...any) error) (domain.ScheduledSession, error) {
	var e domain.ScheduledSession
	var start string
	var end sql.NullString
	err := scan(
		&e.ID, &e.TrainerID,
		&e.Member.ID, &e.Member.Name, &e.Member.Phone,
		&e.Package.ID, &e.Package.Name,
		&e.TotalSessionCount, &e.Status, &start, &end,
	)
	if err != nil {
		return domain.ScheduledSession{}, err
	}
	e.StartDate, _ = storage.ParseTime(start)
	e.EndDate, _ = storage.ParseNullTime(end)
	return e, nil
}
