package postgres

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"zapis/internal/domain"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup connects to DATABASE_URL and migrates into a throwaway schema.
func setup(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	schema := "zapis_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	admin, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(dbURL)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	store := New(pool, &logger)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

// 2022-07-04 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2022, 7, 4, hour, minute, 0, 0, time.UTC)
}

func guardAt(at time.Time) domain.AppointmentGuard {
	return func(s domain.AppointmentSnapshot) error {
		return scheduling.NewValidator().CheckAppointment(s.Worker, at, s.Service, s.Schedules, s.SameDay).Err()
	}
}

func seed(t *testing.T, s *Store) (*models.Worker, *models.Service, *models.Location) {
	ctx := context.Background()

	location := &models.Location{City: "Odesa", Street: "Derybasivska", StreetNumber: "5"}
	require.NoError(t, s.CreateLocation(ctx, location))
	service := &models.Service{Name: "Manicure", Price: 600, Currency: "UAH", DurationSeconds: 40 * 60}
	require.NoError(t, s.CreateService(ctx, service))
	worker := &models.Worker{FirstName: "Iryna", LastName: "Bondar", Profession: "Nail artist", ServiceIDs: []int64{service.ID}}
	require.NoError(t, s.CreateWorker(ctx, worker))

	entry := &models.ScheduleEntry{
		WorkerID: worker.ID, LocationID: location.ID, DayOfWeek: models.Monday,
		Window: models.TimeWindow{Start: models.NewTimeOfDay(8, 0, 0), End: models.NewTimeOfDay(16, 0, 0)},
	}
	require.NoError(t, s.CreateScheduleGuarded(ctx, entry, nil))
	return worker, service, location
}

func TestStore_Directory(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	worker, service, location := seed(t, s)

	got, err := s.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{service.ID}, got.ServiceIDs)

	onMonday, err := s.ListWorkersOnDay(ctx, models.Monday)
	require.NoError(t, err)
	assert.Len(t, onMonday, 1)

	_, err = s.GetLocation(ctx, location.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	schedules, err := s.GetLocationSchedules(ctx, location.ID, models.Monday)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "16:00:00", schedules[0].Window.End.String())
}

func TestStore_GuardedAppointments(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	worker, service, _ := seed(t, s)

	first := &models.Appointment{ClientID: 1, WorkerID: worker.ID, ServiceID: service.ID, ScheduledFor: monday(8, 0)}
	require.NoError(t, s.CreateAppointmentGuarded(ctx, first, guardAt(first.ScheduledFor)))
	assert.Equal(t, int64(1), first.Version)

	again := &models.Appointment{ClientID: 2, WorkerID: worker.ID, ServiceID: service.ID, ScheduledFor: monday(8, 0)}
	assert.ErrorIs(t, s.CreateAppointmentGuarded(ctx, again, guardAt(again.ScheduledFor)), scheduling.ErrSlotOccupied)
	assert.ErrorIs(t, s.CreateAppointmentGuarded(ctx, again, nil), scheduling.ErrSlotOccupied)

	moved := &models.Appointment{ID: first.ID, ScheduledFor: monday(8, 30)}
	require.NoError(t, s.RescheduleAppointmentGuarded(ctx, moved, 1, guardAt(moved.ScheduledFor)))
	assert.Equal(t, int64(2), moved.Version)

	specific := monday(0, 0)
	list, err := s.GetWorkerAppointments(ctx, worker.ID, models.DateFilter{Specific: &specific})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, monday(8, 30), list[0].ScheduledFor)

	assert.ErrorIs(t, s.CancelAppointmentWithVersion(ctx, first.ID, 1), domain.ErrConcurrentModification)
	require.NoError(t, s.CancelAppointmentWithVersion(ctx, first.ID, 2))
	assert.ErrorIs(t, s.CancelAppointmentWithVersion(ctx, first.ID, 3), domain.ErrAlreadyCancelled)
}

func TestStore_ConcurrentAppointments(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	worker, service, _ := seed(t, s)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			appt := &models.Appointment{ClientID: int64(id), WorkerID: worker.ID, ServiceID: service.ID, ScheduledFor: monday(10, 10*(id%3))}
			results <- s.CreateAppointmentGuarded(ctx, appt, guardAt(appt.ScheduledFor))
		}(i)
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, scheduling.ErrSlotOccupied)
	}
	assert.Equal(t, 1, ok)
}
