package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zapis/internal/domain"
	"zapis/internal/models"
)

const scheduleColumns = `id, worker_id, location_id, day_of_week, start_time, end_time, created_at`

// CreateScheduleGuarded сохраняет окно расписания, если guard одобрил снимок
// уже занятых окон этой локации в тот же день недели.
func (db *DB) CreateScheduleGuarded(ctx context.Context, entry *models.ScheduleEntry, guard domain.ScheduleGuard) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getWorker(ctx, tx, entry.WorkerID); err != nil {
			return err
		}
		location, err := getLocation(ctx, tx, entry.LocationID)
		if err != nil {
			return err
		}

		existing, err := querySchedules(ctx, tx,
			`SELECT `+scheduleColumns+` FROM schedules WHERE location_id = ? AND day_of_week = ? ORDER BY start_time`,
			entry.LocationID, int(entry.DayOfWeek))
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(domain.ScheduleSnapshot{Location: *location, Existing: derefSchedules(existing)}); err != nil {
				return err
			}
		}

		now := time.Now()
		query := `INSERT INTO schedules (worker_id, location_id, day_of_week, start_time, end_time, created_at)
                  VALUES (?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, query,
			entry.WorkerID, entry.LocationID, int(entry.DayOfWeek), entry.Window.Start, entry.Window.End, now)
		if err != nil {
			return fmt.Errorf("failed to insert schedule in tx: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id in tx: %w", err)
		}
		entry.ID = id
		entry.CreatedAt = now
		return nil
	})
}

func (db *DB) GetSchedule(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	entries, err := querySchedules(ctx, db, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("schedule %d: %w", id, domain.ErrNotFound)
	}
	return entries[0], nil
}

func (db *DB) DeleteSchedule(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("schedule %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetWorkerSchedules возвращает недельное расписание работника
func (db *DB) GetWorkerSchedules(ctx context.Context, workerID int64) ([]*models.ScheduleEntry, error) {
	return querySchedules(ctx, db,
		`SELECT `+scheduleColumns+` FROM schedules WHERE worker_id = ? ORDER BY day_of_week, start_time`, workerID)
}

func (db *DB) GetLocationSchedules(ctx context.Context, locationID int64, day models.Weekday) ([]*models.ScheduleEntry, error) {
	return querySchedules(ctx, db,
		`SELECT `+scheduleColumns+` FROM schedules WHERE location_id = ? AND day_of_week = ? ORDER BY start_time`,
		locationID, int(day))
}

func querySchedules(ctx context.Context, q querier, query string, args ...interface{}) ([]*models.ScheduleEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var entries []*models.ScheduleEntry
	for rows.Next() {
		e := &models.ScheduleEntry{}
		var day int
		var createdAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.LocationID, &day, &e.Window.Start, &e.Window.End, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		e.DayOfWeek = models.Weekday(day)
		e.CreatedAt = createdAt.Time
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return entries, nil
}

func derefSchedules(entries []*models.ScheduleEntry) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	return out
}
