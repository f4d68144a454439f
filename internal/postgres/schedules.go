package postgres

import (
	"context"
	"fmt"

	"zapis/internal/domain"
	"zapis/internal/models"

	"github.com/jackc/pgx/v5"
)

const scheduleSelect = `SELECT id, worker_id, location_id, day_of_week, start_time, end_time, created_at FROM schedules`

func (s *Store) CreateScheduleGuarded(ctx context.Context, entry *models.ScheduleEntry, guard domain.ScheduleGuard) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := lock(ctx, tx, "location", entry.LocationID); err != nil {
			return err
		}
		if _, err := getWorker(ctx, tx, entry.WorkerID); err != nil {
			return err
		}
		location, err := getLocation(ctx, tx, entry.LocationID)
		if err != nil {
			return err
		}

		existing, err := querySchedules(ctx, tx,
			scheduleSelect+` WHERE location_id=$1 AND day_of_week=$2 ORDER BY start_time`,
			entry.LocationID, int(entry.DayOfWeek))
		if err != nil {
			return err
		}

		if guard != nil {
			if err := guard(domain.ScheduleSnapshot{Location: *location, Existing: existing}); err != nil {
				return err
			}
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO schedules (worker_id, location_id, day_of_week, start_time, end_time)
			 VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
			entry.WorkerID, entry.LocationID, int(entry.DayOfWeek), entry.Window.Start.String(), entry.Window.End.String(),
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert schedule: %w", err)
		}
		return nil
	})
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	entries, err := querySchedules(ctx, s.pool, scheduleSelect+` WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("schedule %d: %w", id, domain.ErrNotFound)
	}
	return &entries[0], nil
}

func (s *Store) DeleteSchedule(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetWorkerSchedules(ctx context.Context, workerID int64) ([]*models.ScheduleEntry, error) {
	entries, err := querySchedules(ctx, s.pool, scheduleSelect+` WHERE worker_id=$1 ORDER BY day_of_week, start_time`, workerID)
	return pointers(entries), err
}

func (s *Store) GetLocationSchedules(ctx context.Context, locationID int64, day models.Weekday) ([]*models.ScheduleEntry, error) {
	entries, err := querySchedules(ctx, s.pool,
		scheduleSelect+` WHERE location_id=$1 AND day_of_week=$2 ORDER BY start_time`, locationID, int(day))
	return pointers(entries), err
}

func querySchedules(ctx context.Context, q querier, query string, args ...any) ([]models.ScheduleEntry, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		var day int16
		var start, end string
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.LocationID, &day, &start, &end, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		e.DayOfWeek = models.Weekday(day)
		if e.Window.Start, err = models.ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if e.Window.End, err = models.ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func pointers[T any](in []T) []*T {
	if in == nil {
		return nil
	}
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}
