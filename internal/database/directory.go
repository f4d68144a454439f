package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"zapis/internal/domain"
	"zapis/internal/models"
)

// CreateLocation создает новую локацию
func (db *DB) CreateLocation(ctx context.Context, location *models.Location) error {
	query := `INSERT INTO locations (city, street, street_number, apartment_address) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, location.City, location.Street, location.StreetNumber, location.ApartmentAddress)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	location.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	return nil
}

// GetLocation возвращает локацию по ID
func (db *DB) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	return getLocation(ctx, db, id)
}

func getLocation(ctx context.Context, q querier, id int64) (*models.Location, error) {
	var l models.Location
	query := `SELECT id, city, street, street_number, apartment_address FROM locations WHERE id = ?`
	err := q.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.City, &l.Street, &l.StreetNumber, &l.ApartmentAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &l, nil
}

func (db *DB) ListLocations(ctx context.Context) ([]*models.Location, error) {
	query := `SELECT id, city, street, street_number, apartment_address FROM locations ORDER BY city, street, id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		l := &models.Location{}
		if err := rows.Scan(&l.ID, &l.City, &l.Street, &l.StreetNumber, &l.ApartmentAddress); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// CreateService создает услугу
func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	query := `INSERT INTO services (name, price, currency, duration_seconds) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, service.Name, service.Price, strings.ToUpper(service.Currency), service.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	service.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	return nil
}

func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return getService(ctx, db, id)
}

func getService(ctx context.Context, q querier, id int64) (*models.Service, error) {
	var s models.Service
	query := `SELECT id, name, price, currency, duration_seconds FROM services WHERE id = ?`
	err := q.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Price, &s.Currency, &s.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &s, nil
}

func (db *DB) ListServices(ctx context.Context) ([]*models.Service, error) {
	query := `SELECT id, name, price, currency, duration_seconds FROM services ORDER BY name, id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s := &models.Service{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.Currency, &s.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// CreateWorker создает работника вместе со списком его услуг
func (db *DB) CreateWorker(ctx context.Context, worker *models.Worker) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO workers (first_name, last_name, profession) VALUES (?, ?, ?)`
		result, err := tx.ExecContext(ctx, query, worker.FirstName, worker.LastName, worker.Profession)
		if err != nil {
			return fmt.Errorf("failed to create worker: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		for _, serviceID := range worker.ServiceIDs {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO worker_services (worker_id, service_id) VALUES (?, ?)`, id, serviceID); err != nil {
				return fmt.Errorf("failed to link service %d: %w", serviceID, err)
			}
		}

		worker.ID = id
		return nil
	})
}

// GetWorker возвращает работника по ID
func (db *DB) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	return getWorker(ctx, db, id)
}

func getWorker(ctx context.Context, q querier, id int64) (*models.Worker, error) {
	var w models.Worker
	query := `SELECT id, first_name, last_name, profession FROM workers WHERE id = ?`
	err := q.QueryRowContext(ctx, query, id).Scan(&w.ID, &w.FirstName, &w.LastName, &w.Profession)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("worker %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}

	workers := []*models.Worker{&w}
	if err := attachServices(ctx, q, workers); err != nil {
		return nil, err
	}
	return &w, nil
}

func (db *DB) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	query := `SELECT id, first_name, last_name, profession FROM workers ORDER BY last_name, first_name, id`
	return db.listWorkers(ctx, query)
}

// ListWorkersOnDay возвращает работников, у которых есть расписание в этот день недели
func (db *DB) ListWorkersOnDay(ctx context.Context, day models.Weekday) ([]*models.Worker, error) {
	query := `SELECT id, first_name, last_name, profession FROM workers
              WHERE id IN (SELECT worker_id FROM schedules WHERE day_of_week = ?)
              ORDER BY last_name, first_name, id`
	return db.listWorkers(ctx, query, int(day))
}

func (db *DB) listWorkers(ctx context.Context, query string, args ...interface{}) ([]*models.Worker, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	var workers []*models.Worker
	for rows.Next() {
		w := &models.Worker{}
		if err := rows.Scan(&w.ID, &w.FirstName, &w.LastName, &w.Profession); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	// единственное соединение должно освободиться до следующего запроса
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	if err := attachServices(ctx, db, workers); err != nil {
		return nil, err
	}
	return workers, nil
}

func attachServices(ctx context.Context, q querier, workers []*models.Worker) error {
	if len(workers) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Worker, len(workers))
	placeholders := make([]string, 0, len(workers))
	args := make([]interface{}, 0, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
		w.ServiceIDs = []int64{}
		placeholders = append(placeholders, "?")
		args = append(args, w.ID)
	}

	query := `SELECT worker_id, service_id FROM worker_services WHERE worker_id IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY service_id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load worker services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var workerID, serviceID int64
		if err := rows.Scan(&workerID, &serviceID); err != nil {
			return fmt.Errorf("failed to scan worker service: %w", err)
		}
		if w, ok := byID[workerID]; ok {
			w.ServiceIDs = append(w.ServiceIDs, serviceID)
		}
	}
	return rows.Err()
}
