package domain

import (
	"context"
	"time"

	"zapis/internal/models"
	"zapis/internal/scheduling"
)

// ScheduleSnapshot is what a guard sees when a schedule entry is written:
// every window already claimed at the entry's location on its weekday.
type ScheduleSnapshot struct {
	Location models.Location
	Existing []models.ScheduleEntry
}

// AppointmentSnapshot is what a guard sees when an appointment is written.
// SameDay holds the worker's live appointments on the target date, without
// the appointment being rescheduled.
type AppointmentSnapshot struct {
	Worker    models.Worker
	Service   models.Service
	Schedules []models.ScheduleEntry
	SameDay   []models.Appointment
}

// ScheduleGuard aborts a guarded write by returning an error.
type ScheduleGuard func(snapshot ScheduleSnapshot) error

type AppointmentGuard func(snapshot AppointmentSnapshot) error

type DirectoryRepository interface {
	CreateLocation(ctx context.Context, location *models.Location) error
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	CreateWorker(ctx context.Context, worker *models.Worker) error
	GetWorker(ctx context.Context, id int64) (*models.Worker, error)
	ListWorkers(ctx context.Context) ([]*models.Worker, error)
	ListWorkersOnDay(ctx context.Context, day models.Weekday) ([]*models.Worker, error)
}

type ScheduleRepository interface {
	CreateScheduleGuarded(ctx context.Context, entry *models.ScheduleEntry, guard ScheduleGuard) error
	GetSchedule(ctx context.Context, id int64) (*models.ScheduleEntry, error)
	DeleteSchedule(ctx context.Context, id int64) error
	GetWorkerSchedules(ctx context.Context, workerID int64) ([]*models.ScheduleEntry, error)
	GetLocationSchedules(ctx context.Context, locationID int64, day models.Weekday) ([]*models.ScheduleEntry, error)
}

type AppointmentRepository interface {
	CreateAppointmentGuarded(ctx context.Context, appt *models.Appointment, guard AppointmentGuard) error
	RescheduleAppointmentGuarded(ctx context.Context, appt *models.Appointment, fromVersion int64, guard AppointmentGuard) error
	CancelAppointmentWithVersion(ctx context.Context, id, fromVersion int64) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	GetWorkerAppointmentsOnDate(ctx context.Context, workerID int64, date time.Time) ([]*models.Appointment, error)
	GetWorkerAppointments(ctx context.Context, workerID int64, filter models.DateFilter) ([]*models.Appointment, error)
	GetClientAppointments(ctx context.Context, clientID int64) ([]*models.Appointment, error)
}

// Repository is implemented by both the SQLite and the PostgreSQL store.
type Repository interface {
	DirectoryRepository
	ScheduleRepository
	AppointmentRepository
	Ping(ctx context.Context) error
	Close() error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AttemptLimiter throttles booking attempts per client.
type AttemptLimiter interface {
	CheckRateLimit(ctx context.Context, clientID int64, limit int, window time.Duration) (bool, error)
}

type ScheduleService interface {
	CreateSchedule(ctx context.Context, entry *models.ScheduleEntry) error
	CheckLocation(ctx context.Context, locationID int64, day models.Weekday, window models.TimeWindow) (scheduling.Verdict, error)
	ListWorkerSchedules(ctx context.Context, workerID int64) ([]*models.ScheduleEntry, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

type BookingService interface {
	ValidateScheduledFor(scheduledFor time.Time) error
	CheckAppointment(ctx context.Context, workerID, serviceID int64, scheduledFor time.Time) (scheduling.Verdict, error)
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	RescheduleAppointment(ctx context.Context, id, version int64, scheduledFor time.Time, serviceID int64) (*models.Appointment, error)
	CancelAppointment(ctx context.Context, id, version int64) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	ListWorkerAppointments(ctx context.Context, workerID int64, filter models.DateFilter) ([]*models.Appointment, error)
	ListClientAppointments(ctx context.Context, clientID int64) ([]*models.Appointment, error)
}

type DirectoryService interface {
	CreateLocation(ctx context.Context, location *models.Location) error
	CreateService(ctx context.Context, service *models.Service) error
	CreateWorker(ctx context.Context, worker *models.Worker) error
	ListWorkers(ctx context.Context, date *time.Time, profession string) ([]*models.Worker, error)
	GetWorker(ctx context.Context, id int64) (*models.Worker, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
}
