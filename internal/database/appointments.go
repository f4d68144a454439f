package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zapis/internal/domain"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"github.com/mattn/go-sqlite3"
)

const appointmentSelect = `SELECT a.id, a.client_id, a.worker_id, a.service_id, a.scheduled_for,
                 s.duration_seconds, a.status, a.created_at, a.updated_at, a.version
          FROM appointments a JOIN services s ON s.id = a.service_id`

// CreateAppointmentGuarded записывает клиента, если guard одобрил снимок
// расписания и записей работника на этот день. Проверка и вставка идут в
// одной транзакции на единственном соединении.
func (db *DB) CreateAppointmentGuarded(ctx context.Context, appt *models.Appointment, guard domain.AppointmentGuard) error {
	appt.ScheduledFor = models.Naive(appt.ScheduledFor)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		snapshot, err := loadAppointmentSnapshot(ctx, tx, appt, 0)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(*snapshot); err != nil {
				return err
			}
		}

		now := time.Now()
		query := `INSERT INTO appointments (
                    client_id, worker_id, service_id, scheduled_for, status, created_at, updated_at, version
                  ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		result, err := tx.ExecContext(ctx, query,
			appt.ClientID,
			appt.WorkerID,
			appt.ServiceID,
			appt.ScheduledFor.Format(models.StorageTimeLayout),
			models.StatusBooked,
			now,
			now,
			1,
		)
		if err != nil {
			return mapInsertError(err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id in tx: %w", err)
		}
		appt.ID = id
		appt.Status = models.StatusBooked
		appt.DurationSeconds = snapshot.Service.DurationSeconds
		appt.CreatedAt = now
		appt.UpdatedAt = now
		appt.Version = 1
		return nil
	})
}

// RescheduleAppointmentGuarded переносит запись на appt.ScheduledFor и/или
// меняет услугу. Сама переносимая запись в снимок не попадает.
func (db *DB) RescheduleAppointmentGuarded(ctx context.Context, appt *models.Appointment, fromVersion int64, guard domain.AppointmentGuard) error {
	appt.ScheduledFor = models.Naive(appt.ScheduledFor)

	return db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getAppointment(ctx, tx, appt.ID)
		if err != nil {
			return err
		}
		if current.Status == models.StatusCancelled {
			return domain.ErrAlreadyCancelled
		}
		if current.Version != fromVersion {
			return domain.ErrConcurrentModification
		}

		appt.ClientID = current.ClientID
		appt.WorkerID = current.WorkerID
		if appt.ServiceID == 0 {
			appt.ServiceID = current.ServiceID
		}

		snapshot, err := loadAppointmentSnapshot(ctx, tx, appt, appt.ID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(*snapshot); err != nil {
				return err
			}
		}

		now := time.Now()
		query := `UPDATE appointments SET scheduled_for = ?, service_id = ?, version = version + 1, updated_at = ?
                  WHERE id = ? AND version = ?`
		result, err := tx.ExecContext(ctx, query,
			appt.ScheduledFor.Format(models.StorageTimeLayout), appt.ServiceID, now, appt.ID, fromVersion)
		if err != nil {
			return mapInsertError(err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrConcurrentModification
		}

		appt.Status = current.Status
		appt.DurationSeconds = snapshot.Service.DurationSeconds
		appt.CreatedAt = current.CreatedAt
		appt.UpdatedAt = now
		appt.Version = fromVersion + 1
		return nil
	})
}

// CancelAppointmentWithVersion отменяет запись с проверкой версии
func (db *DB) CancelAppointmentWithVersion(ctx context.Context, id, fromVersion int64) error {
	query := `UPDATE appointments SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status != ?`
	result, err := db.ExecContext(ctx, query, models.StatusCancelled, time.Now(), id, fromVersion, models.StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	current, err := db.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.StatusCancelled {
		return domain.ErrAlreadyCancelled
	}
	return domain.ErrConcurrentModification
}

func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	return getAppointment(ctx, db, id)
}

func getAppointment(ctx context.Context, q querier, id int64) (*models.Appointment, error) {
	appts, err := queryAppointments(ctx, q, appointmentSelect+` WHERE a.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return nil, fmt.Errorf("appointment %d: %w", id, domain.ErrNotFound)
	}
	return appts[0], nil
}

// GetWorkerAppointmentsOnDate возвращает активные записи работника на дату
func (db *DB) GetWorkerAppointmentsOnDate(ctx context.Context, workerID int64, date time.Time) ([]*models.Appointment, error) {
	return workerAppointmentsOnDate(ctx, db, workerID, date, 0)
}

func workerAppointmentsOnDate(ctx context.Context, q querier, workerID int64, date time.Time, excludeID int64) ([]*models.Appointment, error) {
	from, to := dayBounds(date)
	query := appointmentSelect + `
          WHERE a.worker_id = ? AND a.status != ? AND a.id != ?
            AND a.scheduled_for >= ? AND a.scheduled_for < ?
          ORDER BY a.scheduled_for`
	return queryAppointments(ctx, q, query, workerID, models.StatusCancelled, excludeID, from, to)
}

// GetWorkerAppointments возвращает записи работника с фильтром по датам.
// Конкретная дата имеет приоритет над диапазоном.
func (db *DB) GetWorkerAppointments(ctx context.Context, workerID int64, filter models.DateFilter) ([]*models.Appointment, error) {
	query := appointmentSelect + ` WHERE a.worker_id = ?`
	args := []interface{}{workerID}

	switch {
	case filter.Specific != nil:
		from, to := dayBounds(*filter.Specific)
		query += ` AND a.scheduled_for >= ? AND a.scheduled_for < ?`
		args = append(args, from, to)
	default:
		if filter.Lower != nil {
			from, _ := dayBounds(*filter.Lower)
			query += ` AND a.scheduled_for >= ?`
			args = append(args, from)
		}
		if filter.Upper != nil {
			_, to := dayBounds(*filter.Upper)
			query += ` AND a.scheduled_for < ?`
			args = append(args, to)
		}
	}

	query += ` ORDER BY a.scheduled_for`
	return queryAppointments(ctx, db, query, args...)
}

func (db *DB) GetClientAppointments(ctx context.Context, clientID int64) ([]*models.Appointment, error) {
	return queryAppointments(ctx, db, appointmentSelect+` WHERE a.client_id = ? ORDER BY a.scheduled_for`, clientID)
}

func loadAppointmentSnapshot(ctx context.Context, tx *sql.Tx, appt *models.Appointment, excludeID int64) (*domain.AppointmentSnapshot, error) {
	worker, err := getWorker(ctx, tx, appt.WorkerID)
	if err != nil {
		return nil, err
	}
	service, err := getService(ctx, tx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	schedules, err := querySchedules(ctx, tx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE worker_id = ? AND day_of_week = ? ORDER BY start_time`,
		appt.WorkerID, int(models.WeekdayOf(appt.ScheduledFor)))
	if err != nil {
		return nil, err
	}

	sameDay, err := workerAppointmentsOnDate(ctx, tx, appt.WorkerID, appt.ScheduledFor, excludeID)
	if err != nil {
		return nil, err
	}

	return &domain.AppointmentSnapshot{
		Worker:    *worker,
		Service:   *service,
		Schedules: derefSchedules(schedules),
		SameDay:   derefAppointments(sameDay),
	}, nil
}

func queryAppointments(ctx context.Context, q querier, query string, args ...interface{}) ([]*models.Appointment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a := &models.Appointment{}
		var scheduledFor string
		var createdAt, updatedAt sql.NullTime
		err := rows.Scan(
			&a.ID, &a.ClientID, &a.WorkerID, &a.ServiceID, &scheduledFor,
			&a.DurationSeconds, &a.Status, &createdAt, &updatedAt, &a.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}

		a.ScheduledFor, err = time.ParseInLocation(models.StorageTimeLayout, scheduledFor, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse appointment time %s: %w", scheduledFor, err)
		}
		a.CreatedAt = createdAt.Time
		a.UpdatedAt = updatedAt.Time
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appts, nil
}

// dayBounds returns [date 00:00:00, next day 00:00:00) in storage format.
func dayBounds(date time.Time) (string, string) {
	start := models.DateOf(date)
	return start.Format(models.StorageTimeLayout), start.AddDate(0, 0, 1).Format(models.StorageTimeLayout)
}

func derefAppointments(appts []*models.Appointment) []models.Appointment {
	out := make([]models.Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, *a)
	}
	return out
}

// mapInsertError turns a hit on the live-slot unique index into SlotOccupied.
func mapInsertError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return scheduling.Verdict{Kind: scheduling.SlotOccupied}.Err()
	}
	return fmt.Errorf("failed to write appointment in tx: %w", err)
}
