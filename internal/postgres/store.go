package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapis/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS locations (
	id BIGSERIAL PRIMARY KEY,
	city TEXT NOT NULL,
	street TEXT NOT NULL,
	street_number TEXT NOT NULL,
	apartment_address TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS services (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	price BIGINT NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	duration_seconds BIGINT NOT NULL CHECK (duration_seconds >= 0)
);

CREATE TABLE IF NOT EXISTS workers (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL DEFAULT '',
	profession TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS worker_services (
	worker_id BIGINT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
	service_id BIGINT NOT NULL REFERENCES services(id) ON DELETE CASCADE,
	PRIMARY KEY (worker_id, service_id)
);

CREATE TABLE IF NOT EXISTS schedules (
	id BIGSERIAL PRIMARY KEY,
	worker_id BIGINT NOT NULL REFERENCES workers(id) ON DELETE CASCADE,
	location_id BIGINT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
	day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id BIGSERIAL PRIMARY KEY,
	client_id BIGINT NOT NULL,
	worker_id BIGINT NOT NULL REFERENCES workers(id),
	service_id BIGINT NOT NULL REFERENCES services(id),
	scheduled_for TIMESTAMP NOT NULL,
	status TEXT NOT NULL DEFAULT 'booked',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	version BIGINT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_schedules_worker ON schedules(worker_id, day_of_week);
CREATE INDEX IF NOT EXISTS idx_schedules_location ON schedules(location_id, day_of_week);
CREATE INDEX IF NOT EXISTS idx_appointments_client ON appointments(client_id);
CREATE INDEX IF NOT EXISTS idx_appointments_worker_time ON appointments(worker_id, scheduled_for);
CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_worker_slot
	ON appointments(worker_id, scheduled_for) WHERE status <> 'cancelled';
`

// Store is the PostgreSQL implementation of domain.Repository. Guarded writes
// take a transaction-scoped advisory lock per worker or per location.
type Store struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

var _ domain.Repository = (*Store)(nil)

func Open(ctx context.Context, databaseURL string, logger *zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	return New(pool, logger), nil
}

func New(pool *pgxpool.Pool, logger *zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.logger.Info().Msg("PostgreSQL schema is up to date")
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lock serializes guarded writes that share key until the transaction ends.
func lock(ctx context.Context, tx pgx.Tx, kind string, id int64) error {
	key := fmt.Sprintf("zapis:%s:%d", kind, id)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock %s %d: %w", kind, id, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
