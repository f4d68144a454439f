package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"zapis/internal/config"
	"zapis/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
locations:
  - id: 10
    city: Kharkiv
    street: Sumska
    street_number: "12"
services:
  - id: 20
    name: Massage
    price: 900
    currency: uah
    duration_seconds: 3600
workers:
  - id: 30
    first_name: Oksana
    last_name: Hnatiuk
    profession: Therapist
    service_ids: [20]
schedules:
  - worker_id: 30
    location_id: 10
    day: tuesday
    start: "09:00"
    end: "18:00"
`

func openTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	logger := zerolog.Nop()
	a, err := Open(context.Background(), cfg, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sqliteConfig() *config.Config {
	return &config.Config{Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}}
}

func TestApplySeed(t *testing.T) {
	a := openTestApp(t, sqliteConfig())
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	seed, err := LoadSeed(path)
	require.NoError(t, err)

	applied, err := a.ApplySeed(ctx, seed)
	require.NoError(t, err)
	assert.True(t, applied)

	workers, err := a.Directory.ListWorkers(ctx, nil, "therapist")
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, []int64{1}, workers[0].ServiceIDs)

	schedules, err := a.Schedules.ListWorkerSchedules(ctx, workers[0].ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, models.Tuesday, schedules[0].DayOfWeek)
	assert.Equal(t, "09:00:00-18:00:00", schedules[0].Window.String())

	applied, err = a.ApplySeed(ctx, seed)
	require.NoError(t, err)
	assert.False(t, applied)

	locations, err := a.Directory.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 1)
}

func TestApplySeedUnknownReference(t *testing.T) {
	a := openTestApp(t, sqliteConfig())
	seed := &Seed{
		Locations: []models.Location{{ID: 1, City: "Dnipro", Street: "Yavornytskoho", StreetNumber: "3"}},
		Schedules: []SeedSchedule{{WorkerID: 5, LocationID: 1, Day: "monday",
			Start: models.NewTimeOfDay(9, 0, 0), End: models.NewTimeOfDay(10, 0, 0)}},
	}

	_, err := a.ApplySeed(context.Background(), seed)
	assert.ErrorContains(t, err, "unknown worker 5")
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestOpenWithRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig()
	cfg.Redis.Address = mr.Addr()
	a := openTestApp(t, cfg)

	require.NotNil(t, a.Redis)
	allowed, err := a.Limiter.CheckRateLimit(context.Background(), 1, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.True(t, mr.Exists("zapis:attempts:1"))

	services := a.Services()
	require.NotNil(t, services.Ready)
	assert.NoError(t, services.Ready(context.Background()))
}

func TestSweepLimiterStops(t *testing.T) {
	a := openTestApp(t, sqliteConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.SweepLimiter(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SweepLimiter did not stop")
	}
}
