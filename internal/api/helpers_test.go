package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/export"
	"zapis/internal/models"
	"zapis/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db       *database.DB
	svc      Services
	worker   *models.Worker
	haircut  *models.Service
	shave    *models.Service
	location *models.Location
	// day is three days ahead; the worker is on shift 08:00-20:00 every day.
	day time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	location := &models.Location{City: "Lviv", Street: "Rynok", StreetNumber: "1"}
	require.NoError(t, db.CreateLocation(ctx, location))
	require.NoError(t, db.CreateLocation(ctx, &models.Location{City: "Lviv", Street: "Svobody", StreetNumber: "7"}))
	haircut := &models.Service{Name: "Haircut", Price: 450, Currency: "UAH", DurationSeconds: 40 * 60}
	require.NoError(t, db.CreateService(ctx, haircut))
	shave := &models.Service{Name: "Royal shave", Price: 600, Currency: "UAH", DurationSeconds: 90 * 60}
	require.NoError(t, db.CreateService(ctx, shave))
	worker := &models.Worker{FirstName: "Taras", LastName: "Melnyk", Profession: "Barber", ServiceIDs: []int64{haircut.ID, shave.ID}}
	require.NoError(t, db.CreateWorker(ctx, worker))

	for day := models.Monday; day <= models.Sunday; day++ {
		entry := &models.ScheduleEntry{
			WorkerID: worker.ID, LocationID: location.ID, DayOfWeek: day,
			Window: models.TimeWindow{Start: models.NewTimeOfDay(8, 0, 0), End: models.NewTimeOfDay(20, 0, 0)},
		}
		require.NoError(t, db.CreateScheduleGuarded(ctx, entry, nil))
	}

	bookings := service.NewBookingService(db, nil, nil, config.BookingConfig{}, &logger)
	schedules := service.NewScheduleService(db, nil, nil, &logger)
	directory := service.NewDirectoryService(db, &logger)

	return &fixture{
		db: db,
		svc: Services{
			Schedules: schedules,
			Bookings:  bookings,
			Directory: directory,
			Exporter:  export.NewExporter(bookings, schedules, directory, &logger),
		},
		worker:   worker,
		haircut:  haircut,
		shave:    shave,
		location: location,
		day:      models.DateOf(time.Now()).AddDate(0, 0, 3),
	}
}

func (f *fixture) at(hour, minute int) string {
	return f.day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute).Format(models.DateTimeLayout)
}

func openAPI() config.APIConfig {
	return config.APIConfig{Enabled: true, HTTP: config.APIHTTPConfig{Enabled: true}}
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}
