// Package app wires configuration into stores, limiters and services. It is
// shared by the API server and zapisctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapis/internal/api"
	"zapis/internal/backoff"
	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/domain"
	"zapis/internal/events"
	"zapis/internal/export"
	"zapis/internal/postgres"
	"zapis/internal/repository"
	"zapis/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	Config *config.Config
	Logger *zerolog.Logger

	Repo domain.Repository
	// SQLite is set only for the sqlite driver; backups need it.
	SQLite *database.DB

	Redis   *redis.Client
	Limiter domain.AttemptLimiter
	memory  *repository.MemoryAttemptLimiter

	Events    *events.EventBus
	Schedules *service.ScheduleService
	Bookings  *service.BookingService
	Directory *service.DirectoryService
	Exporter  *export.Exporter
}

func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	a.openLimiter(ctx)

	a.Events = events.NewEventBus()
	a.Events.Subscribe(events.AllEvents, events.LogHandler(logger))

	a.Schedules = service.NewScheduleService(a.Repo, a.Events, nil, logger)
	a.Bookings = service.NewBookingService(a.Repo, a.Events, a.Limiter, cfg.Booking, logger)
	a.Directory = service.NewDirectoryService(a.Repo, logger)
	a.Exporter = export.NewExporter(a.Bookings, a.Schedules, a.Directory, logger)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, a.Config.Database.Postgres.ConnString(), a.Logger)
		if err != nil {
			return err
		}
		policy := backoff.DefaultPolicy
		if err := backoff.Retry(ctx, policy, a.Logger, "postgres ping", store.Ping); err != nil {
			_ = store.Close()
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return err
		}
		a.Repo = store
	default:
		db, err := database.NewDB(a.Config.Database.Path, a.Logger)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		a.Repo = db
		a.SQLite = db
	}

	a.Logger.Info().Str("driver", a.Config.Database.Driver).Msg("store ready")
	return nil
}

// openLimiter prefers Redis and falls back to process memory whenever Redis
// is unreachable, including at startup.
func (a *App) openLimiter(ctx context.Context) {
	a.memory = repository.NewMemoryAttemptLimiter()
	if a.Config.Redis.Address == "" {
		a.Limiter = a.memory
		return
	}

	a.Redis = repository.NewRedisClient(a.Config.Redis)
	if err := repository.Ping(ctx, a.Redis); err != nil {
		a.Logger.Warn().Err(err).Str("addr", a.Config.Redis.Address).Msg("redis unavailable, using in-memory attempt limiter until it recovers")
	} else {
		a.Logger.Info().Str("addr", a.Config.Redis.Address).Msg("redis connected")
	}
	a.Limiter = repository.NewFailoverAttemptLimiter(repository.NewRedisAttemptLimiter(a.Redis), a.memory, a.Logger)
}

// Services exposes the handlers' dependencies.
func (a *App) Services() api.Services {
	return api.Services{
		Schedules: a.Schedules,
		Bookings:  a.Bookings,
		Directory: a.Directory,
		Exporter:  a.Exporter,
		Ready:     a.Repo.Ping,
	}
}

// SweepLimiter drops expired in-memory attempt counters until ctx is done.
func (a *App) SweepLimiter(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.memory.Sweep(); n > 0 {
				a.Logger.Debug().Int("removed", n).Msg("attempt counters swept")
			}
		}
	}
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, repository.Close(a.Redis))
	}
	if a.Repo != nil {
		errs = append(errs, a.Repo.Close())
	}
	return errors.Join(errs...)
}
