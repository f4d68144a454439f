package service

import (
	"context"
	"time"

	"zapis/internal/domain"
	"zapis/internal/models"

	"github.com/stretchr/testify/mock"
)

// mockRepo runs guards against the snapshot passed as the first Return value.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateLocation(ctx context.Context, l *models.Location) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockRepo) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}
func (m *mockRepo) ListLocations(ctx context.Context) ([]*models.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Location), args.Error(1)
}
func (m *mockRepo) CreateService(ctx context.Context, s *models.Service) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *mockRepo) ListServices(ctx context.Context) ([]*models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockRepo) CreateWorker(ctx context.Context, w *models.Worker) error {
	return m.Called(ctx, w).Error(0)
}
func (m *mockRepo) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Worker), args.Error(1)
}
func (m *mockRepo) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Worker), args.Error(1)
}
func (m *mockRepo) ListWorkersOnDay(ctx context.Context, d models.Weekday) ([]*models.Worker, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Worker), args.Error(1)
}
func (m *mockRepo) CreateScheduleGuarded(ctx context.Context, e *models.ScheduleEntry, guard domain.ScheduleGuard) error {
	args := m.Called(ctx, e)
	if snap, ok := args.Get(0).(*domain.ScheduleSnapshot); ok && snap != nil {
		if err := guard(*snap); err != nil {
			return err
		}
	}
	return args.Error(1)
}
func (m *mockRepo) GetSchedule(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduleEntry), args.Error(1)
}
func (m *mockRepo) DeleteSchedule(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetWorkerSchedules(ctx context.Context, id int64) ([]*models.ScheduleEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduleEntry), args.Error(1)
}
func (m *mockRepo) GetLocationSchedules(ctx context.Context, id int64, d models.Weekday) ([]*models.ScheduleEntry, error) {
	args := m.Called(ctx, id, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduleEntry), args.Error(1)
}
func (m *mockRepo) CreateAppointmentGuarded(ctx context.Context, a *models.Appointment, guard domain.AppointmentGuard) error {
	args := m.Called(ctx, a)
	if snap, ok := args.Get(0).(*domain.AppointmentSnapshot); ok && snap != nil {
		if err := guard(*snap); err != nil {
			return err
		}
	}
	return args.Error(1)
}
func (m *mockRepo) RescheduleAppointmentGuarded(ctx context.Context, a *models.Appointment, v int64, guard domain.AppointmentGuard) error {
	args := m.Called(ctx, a, v)
	if snap, ok := args.Get(0).(*domain.AppointmentSnapshot); ok && snap != nil {
		if err := guard(*snap); err != nil {
			return err
		}
	}
	return args.Error(1)
}
func (m *mockRepo) CancelAppointmentWithVersion(ctx context.Context, id, v int64) error {
	return m.Called(ctx, id, v).Error(0)
}
func (m *mockRepo) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}
func (m *mockRepo) GetWorkerAppointmentsOnDate(ctx context.Context, id int64, d time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, id, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}
func (m *mockRepo) GetWorkerAppointments(ctx context.Context, id int64, f models.DateFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}
func (m *mockRepo) GetClientAppointments(ctx context.Context, id int64) ([]*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}
func (m *mockRepo) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockRepo) Close() error                   { return m.Called().Error(0) }

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) CheckRateLimit(ctx context.Context, clientID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, clientID, limit, window)
	return args.Bool(0), args.Error(1)
}

// 2022-07-04 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2022, 7, 4, hour, minute, 0, 0, time.UTC)
}

func tod(hour, minute int) models.TimeOfDay {
	return models.NewTimeOfDay(hour, minute, 0)
}

var (
	haircut = &models.Service{ID: 2, Name: "Haircut", Price: 450, Currency: "UAH", DurationSeconds: 40 * 60}
	barber  = &models.Worker{ID: 7, FirstName: "Olena", LastName: "Koval", Profession: "Barber", ServiceIDs: []int64{2}}
	shift   = &models.ScheduleEntry{ID: 1, WorkerID: 7, LocationID: 3, DayOfWeek: models.Monday, Window: models.TimeWindow{Start: tod(8, 0), End: tod(16, 0)}}
)

func appointmentSnapshot(sameDay ...models.Appointment) *domain.AppointmentSnapshot {
	return &domain.AppointmentSnapshot{
		Worker:    *barber,
		Service:   *haircut,
		Schedules: []models.ScheduleEntry{*shift},
		SameDay:   sameDay,
	}
}
