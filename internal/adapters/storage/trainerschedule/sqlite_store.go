package trainerschedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"billionsgym/internal/adapters/storage"
	domain "billionsgym/internal/domain/availability"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new trainer schedule store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get loads a trainer's stored week, days in the order they were saved.
// PRE: trainerID is non-empty
// POST: Returns ErrNotFound if the trainer has never saved a schedule
func (s *SQLiteStore) Get(ctx context.Context, trainerID string) (domain.WeeklySchedule, error) {
	out := domain.WeeklySchedule{TrainerID: trainerID}

	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT version, updated_at FROM trainer_schedule WHERE trainer_id = ?", trainerID,
	).Scan(&out.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WeeklySchedule{}, ErrNotFound
	}
	if err != nil {
		return domain.WeeklySchedule{}, err
	}
	if out.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.WeeklySchedule{}, fmt.Errorf("trainer schedule %s: %w", trainerID, err)
	}

	days, err := s.queryDays(ctx, trainerID)
	if err != nil {
		return domain.WeeklySchedule{}, err
	}
	if err := s.attachSlots(ctx, trainerID, days); err != nil {
		return domain.WeeklySchedule{}, err
	}
	out.Days = days
	return out, nil
}

func (s *SQLiteStore) queryDays(ctx context.Context, trainerID string) ([]domain.DaySchedule, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT weekday, note FROM trainer_schedule_day WHERE trainer_id = ? ORDER BY position", trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []domain.DaySchedule{}
	for rows.Next() {
		var d domain.DaySchedule
		var weekday string
		if err := rows.Scan(&weekday, &d.Note); err != nil {
			return nil, err
		}
		d.Weekday = domain.Weekday(weekday)
		d.Slots = []domain.TimeSlot{}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *SQLiteStore) attachSlots(ctx context.Context, trainerID string, days []domain.DaySchedule) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT weekday, start_time, end_time, status FROM trainer_schedule_slot WHERE trainer_id = ? ORDER BY weekday, position", trainerID)
	if err != nil {
		return err
	}
	defer rows.Close()

	index := make(map[domain.Weekday]int, len(days))
	for i, d := range days {
		index[d.Weekday] = i
	}
	for rows.Next() {
		var weekday, status string
		var slot domain.TimeSlot
		if err := rows.Scan(&weekday, &slot.StartTime, &slot.EndTime, &status); err != nil {
			return err
		}
		slot.Status = domain.SlotStatus(status)
		i, ok := index[domain.Weekday(weekday)]
		if !ok {
			continue
		}
		days[i].Slots = append(days[i].Slots, slot)
	}
	return rows.Err()
}

// Replace overwrites the trainer's whole week in one transaction.
// PRE: value has been validated
// POST: Stored days and slots equal value.Days; version is incremented and returned.
// Returns ErrVersionConflict without writing when opts.ExpectedVersion is stale.
func (s *SQLiteStore) Replace(ctx context.Context, value domain.WeeklySchedule, opts ReplaceOptions) (domain.WeeklySchedule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WeeklySchedule{}, err
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx, "SELECT version FROM trainer_schedule WHERE trainer_id = ?", value.TrainerID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.WeeklySchedule{}, err
	}
	if opts.ExpectedVersion != nil && *opts.ExpectedVersion != current {
		return domain.WeeklySchedule{}, fmt.Errorf("%w: have %d, stored %d", ErrVersionConflict, *opts.ExpectedVersion, current)
	}

	now := s.now()
	next := current + 1
	_, err = tx.ExecContext(ctx,
		"INSERT INTO trainer_schedule (trainer_id, version, updated_at, updated_by) VALUES (?, ?, ?, ?) ON CONFLICT(trainer_id) DO UPDATE SET version=excluded.version, updated_at=excluded.updated_at, updated_by=excluded.updated_by",
		value.TrainerID, next, storage.FormatTime(now), opts.UpdatedBy,
	)
	if err != nil {
		return domain.WeeklySchedule{}, err
	}

	// Slots first: foreign_keys is a per-connection pragma, so cascade cannot be relied on.
	if _, err := tx.ExecContext(ctx, "DELETE FROM trainer_schedule_slot WHERE trainer_id = ?", value.TrainerID); err != nil {
		return domain.WeeklySchedule{}, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM trainer_schedule_day WHERE trainer_id = ?", value.TrainerID); err != nil {
		return domain.WeeklySchedule{}, err
	}

	for dayPos, d := range value.Days {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trainer_schedule_day (trainer_id, weekday, position, note) VALUES (?, ?, ?, ?)",
			value.TrainerID, string(d.Weekday), dayPos, d.Note,
		)
		if err != nil {
			return domain.WeeklySchedule{}, fmt.Errorf("insert %s: %w", d.Weekday, err)
		}
		for slotPos, slot := range d.Slots {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO trainer_schedule_slot (trainer_id, weekday, position, start_time, end_time, status) VALUES (?, ?, ?, ?, ?, ?)",
				value.TrainerID, string(d.Weekday), slotPos, slot.StartTime, slot.EndTime, string(slot.Status),
			)
			if err != nil {
				return domain.WeeklySchedule{}, fmt.Errorf("insert %s slot %d: %w", d.Weekday, slotPos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WeeklySchedule{}, err
	}

	saved := value.Clone()
	saved.Version = next
	saved.UpdatedAt = now
	return saved, nil
}
