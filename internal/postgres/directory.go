package postgres

import (
	"context"
	"fmt"
	"strings"

	"zapis/internal/models"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateLocation(ctx context.Context, l *models.Location) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO locations (city, street, street_number, apartment_address) VALUES ($1,$2,$3,$4) RETURNING id`,
		l.City, l.Street, l.StreetNumber, l.ApartmentAddress,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

func (s *Store) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	return getLocation(ctx, s.pool, id)
}

func getLocation(ctx context.Context, q querier, id int64) (*models.Location, error) {
	var l models.Location
	err := q.QueryRow(ctx,
		`SELECT id, city, street, street_number, apartment_address FROM locations WHERE id=$1`, id,
	).Scan(&l.ID, &l.City, &l.Street, &l.StreetNumber, &l.ApartmentAddress)
	if err != nil {
		return nil, notFound(err, "location", id)
	}
	return &l, nil
}

func (s *Store) ListLocations(ctx context.Context) ([]*models.Location, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, city, street, street_number, apartment_address FROM locations ORDER BY city, street, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var out []*models.Location
	for rows.Next() {
		l := &models.Location{}
		if err := rows.Scan(&l.ID, &l.City, &l.Street, &l.StreetNumber, &l.ApartmentAddress); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO services (name, price, currency, duration_seconds) VALUES ($1,$2,$3,$4) RETURNING id`,
		svc.Name, svc.Price, strings.ToUpper(svc.Currency), svc.DurationSeconds,
	).Scan(&svc.ID)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (s *Store) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return getService(ctx, s.pool, id)
}

func getService(ctx context.Context, q querier, id int64) (*models.Service, error) {
	var svc models.Service
	err := q.QueryRow(ctx,
		`SELECT id, name, price, currency, duration_seconds FROM services WHERE id=$1`, id,
	).Scan(&svc.ID, &svc.Name, &svc.Price, &svc.Currency, &svc.DurationSeconds)
	if err != nil {
		return nil, notFound(err, "service", id)
	}
	return &svc, nil
}

func (s *Store) ListServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, price, currency, duration_seconds FROM services ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var out []*models.Service
	for rows.Next() {
		svc := &models.Service{}
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price, &svc.Currency, &svc.DurationSeconds); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) CreateWorker(ctx context.Context, w *models.Worker) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workers (first_name, last_name, profession) VALUES ($1,$2,$3) RETURNING id`,
			w.FirstName, w.LastName, w.Profession,
		).Scan(&w.ID)
		if err != nil {
			return fmt.Errorf("failed to create worker: %w", err)
		}

		for _, serviceID := range w.ServiceIDs {
			_, err = tx.Exec(ctx,
				`INSERT INTO worker_services (worker_id, service_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
				w.ID, serviceID,
			)
			if err != nil {
				return fmt.Errorf("failed to link service %d: %w", serviceID, err)
			}
		}
		return nil
	})
}

func (s *Store) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	return getWorker(ctx, s.pool, id)
}

const workerSelect = `SELECT w.id, w.first_name, w.last_name, w.profession,
	       COALESCE(array_agg(ws.service_id ORDER BY ws.service_id) FILTER (WHERE ws.service_id IS NOT NULL), '{}')
	FROM workers w LEFT JOIN worker_services ws ON ws.worker_id = w.id`

func getWorker(ctx context.Context, q querier, id int64) (*models.Worker, error) {
	var w models.Worker
	err := q.QueryRow(ctx, workerSelect+` WHERE w.id=$1 GROUP BY w.id`, id).
		Scan(&w.ID, &w.FirstName, &w.LastName, &w.Profession, &w.ServiceIDs)
	if err != nil {
		return nil, notFound(err, "worker", id)
	}
	return &w, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	return s.listWorkers(ctx, workerSelect+` GROUP BY w.id ORDER BY w.last_name, w.first_name, w.id`)
}

func (s *Store) ListWorkersOnDay(ctx context.Context, day models.Weekday) ([]*models.Worker, error) {
	return s.listWorkers(ctx, workerSelect+`
	WHERE w.id IN (SELECT worker_id FROM schedules WHERE day_of_week=$1)
	GROUP BY w.id ORDER BY w.last_name, w.first_name, w.id`, int(day))
}

func (s *Store) listWorkers(ctx context.Context, query string, args ...any) ([]*models.Worker, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	var out []*models.Worker
	for rows.Next() {
		w := &models.Worker{}
		if err := rows.Scan(&w.ID, &w.FirstName, &w.LastName, &w.Profession, &w.ServiceIDs); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
