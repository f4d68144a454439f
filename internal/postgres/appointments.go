package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapis/internal/domain"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"github.com/jackc/pgx/v5"
)

const appointmentSelect = `SELECT a.id, a.client_id, a.worker_id, a.service_id, a.scheduled_for,
	       s.duration_seconds, a.status, a.created_at, a.updated_at, a.version
	FROM appointments a JOIN services s ON s.id = a.service_id`

func (s *Store) CreateAppointmentGuarded(ctx context.Context, appt *models.Appointment, guard domain.AppointmentGuard) error {
	appt.ScheduledFor = models.Naive(appt.ScheduledFor)

	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := lock(ctx, tx, "worker", appt.WorkerID); err != nil {
			return err
		}

		snapshot, err := loadSnapshot(ctx, tx, appt, 0)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(*snapshot); err != nil {
				return err
			}
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO appointments (client_id, worker_id, service_id, scheduled_for, status)
			 VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at, version`,
			appt.ClientID, appt.WorkerID, appt.ServiceID, appt.ScheduledFor, models.StatusBooked,
		).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt, &appt.Version)
		if err != nil {
			return mapWriteError(err)
		}

		appt.Status = models.StatusBooked
		appt.DurationSeconds = snapshot.Service.DurationSeconds
		return nil
	})
}

func (s *Store) RescheduleAppointmentGuarded(ctx context.Context, appt *models.Appointment, fromVersion int64, guard domain.AppointmentGuard) error {
	appt.ScheduledFor = models.Naive(appt.ScheduledFor)

	return s.withTx(ctx, func(tx pgx.Tx) error {
		current, err := getAppointment(ctx, tx, appt.ID)
		if err != nil {
			return err
		}
		if err := lock(ctx, tx, "worker", current.WorkerID); err != nil {
			return err
		}
		// перечитываем под блокировкой
		if current, err = getAppointment(ctx, tx, appt.ID); err != nil {
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

		snapshot, err := loadSnapshot(ctx, tx, appt, appt.ID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(*snapshot); err != nil {
				return err
			}
		}

		err = tx.QueryRow(ctx,
			`UPDATE appointments SET scheduled_for=$1, service_id=$2, version=version+1, updated_at=now()
			 WHERE id=$3 AND version=$4 RETURNING updated_at, version`,
			appt.ScheduledFor, appt.ServiceID, appt.ID, fromVersion,
		).Scan(&appt.UpdatedAt, &appt.Version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrConcurrentModification
			}
			return mapWriteError(err)
		}

		appt.Status = current.Status
		appt.CreatedAt = current.CreatedAt
		appt.DurationSeconds = snapshot.Service.DurationSeconds
		return nil
	})
}

func (s *Store) CancelAppointmentWithVersion(ctx context.Context, id, fromVersion int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status=$1, version=version+1, updated_at=now()
		 WHERE id=$2 AND version=$3 AND status<>$1`,
		models.StatusCancelled, id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	current, err := s.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.StatusCancelled {
		return domain.ErrAlreadyCancelled
	}
	return domain.ErrConcurrentModification
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	return getAppointment(ctx, s.pool, id)
}

func getAppointment(ctx context.Context, q querier, id int64) (*models.Appointment, error) {
	appts, err := queryAppointments(ctx, q, appointmentSelect+` WHERE a.id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return nil, fmt.Errorf("appointment %d: %w", id, domain.ErrNotFound)
	}
	return &appts[0], nil
}

func (s *Store) GetWorkerAppointmentsOnDate(ctx context.Context, workerID int64, date time.Time) ([]*models.Appointment, error) {
	appts, err := sameDayAppointments(ctx, s.pool, workerID, date, 0)
	return pointers(appts), err
}

func sameDayAppointments(ctx context.Context, q querier, workerID int64, date time.Time, excludeID int64) ([]models.Appointment, error) {
	from := models.DateOf(date)
	return queryAppointments(ctx, q, appointmentSelect+`
	WHERE a.worker_id=$1 AND a.status<>$2 AND a.id<>$3
	  AND a.scheduled_for >= $4 AND a.scheduled_for < $5
	ORDER BY a.scheduled_for`,
		workerID, models.StatusCancelled, excludeID, from, from.AddDate(0, 0, 1))
}

func (s *Store) GetWorkerAppointments(ctx context.Context, workerID int64, filter models.DateFilter) ([]*models.Appointment, error) {
	query := appointmentSelect + ` WHERE a.worker_id=$1`
	args := []any{workerID}

	add := func(cond string, v time.Time) {
		args = append(args, v)
		query += fmt.Sprintf(" AND a.scheduled_for %s $%d", cond, len(args))
	}

	if filter.Specific != nil {
		from := models.DateOf(*filter.Specific)
		add(">=", from)
		add("<", from.AddDate(0, 0, 1))
	} else {
		if filter.Lower != nil {
			add(">=", models.DateOf(*filter.Lower))
		}
		if filter.Upper != nil {
			add("<", models.DateOf(*filter.Upper).AddDate(0, 0, 1))
		}
	}

	appts, err := queryAppointments(ctx, s.pool, query+` ORDER BY a.scheduled_for`, args...)
	return pointers(appts), err
}

func (s *Store) GetClientAppointments(ctx context.Context, clientID int64) ([]*models.Appointment, error) {
	appts, err := queryAppointments(ctx, s.pool, appointmentSelect+` WHERE a.client_id=$1 ORDER BY a.scheduled_for`, clientID)
	return pointers(appts), err
}

func loadSnapshot(ctx context.Context, tx pgx.Tx, appt *models.Appointment, excludeID int64) (*domain.AppointmentSnapshot, error) {
	worker, err := getWorker(ctx, tx, appt.WorkerID)
	if err != nil {
		return nil, err
	}
	service, err := getService(ctx, tx, appt.ServiceID)
	if err != nil {
		return nil, err
	}
	schedules, err := querySchedules(ctx, tx,
		scheduleSelect+` WHERE worker_id=$1 AND day_of_week=$2 ORDER BY start_time`,
		appt.WorkerID, int(models.WeekdayOf(appt.ScheduledFor)))
	if err != nil {
		return nil, err
	}
	sameDay, err := sameDayAppointments(ctx, tx, appt.WorkerID, appt.ScheduledFor, excludeID)
	if err != nil {
		return nil, err
	}

	return &domain.AppointmentSnapshot{
		Worker:    *worker,
		Service:   *service,
		Schedules: schedules,
		SameDay:   sameDay,
	}, nil
}

func queryAppointments(ctx context.Context, q querier, query string, args ...any) ([]models.Appointment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var out []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(
			&a.ID, &a.ClientID, &a.WorkerID, &a.ServiceID, &a.ScheduledFor,
			&a.DurationSeconds, &a.Status, &a.CreatedAt, &a.UpdatedAt, &a.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func mapWriteError(err error) error {
	if isUniqueViolation(err) {
		return scheduling.Verdict{Kind: scheduling.SlotOccupied}.Err()
	}
	return fmt.Errorf("failed to write appointment: %w", err)
}
