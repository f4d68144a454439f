package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapis/internal/config"
	"zapis/internal/domain"
	"zapis/internal/events"
	"zapis/internal/metrics"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"github.com/rs/zerolog"
)

const maxServiceDuration = 24 * time.Hour

type BookingService struct {
	repo      domain.Repository
	eventBus  domain.EventPublisher
	limiter   domain.AttemptLimiter
	validator *scheduling.Validator
	cfg       config.BookingConfig
	logger    *zerolog.Logger
	now       func() time.Time
}

var _ domain.BookingService = (*BookingService)(nil)

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, limiter domain.AttemptLimiter, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	if cfg.MaxBookingDays <= 0 {
		cfg.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if cfg.AttemptLimit <= 0 {
		cfg.AttemptLimit = models.DefaultAttemptLimit
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = models.DefaultAttemptWindow
	}
	return &BookingService{
		repo:      repo,
		eventBus:  eventBus,
		limiter:   limiter,
		validator: scheduling.NewValidator(),
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return models.Naive(time.Now()) },
	}
}

// ValidateScheduledFor проверяет, что время записи в допустимом диапазоне
func (s *BookingService) ValidateScheduledFor(scheduledFor time.Time) error {
	now := s.now()
	scheduledFor = models.Naive(scheduledFor)

	if !scheduledFor.After(now) {
		return domain.ErrPastDate
	}
	if s.cfg.MinAdvanceMinutes > 0 && scheduledFor.Before(now.Add(time.Duration(s.cfg.MinAdvanceMinutes)*time.Minute)) {
		return domain.ErrTooSoon
	}
	if scheduledFor.After(now.AddDate(0, 0, s.cfg.MaxBookingDays)) {
		return domain.ErrDateTooFar
	}
	return nil
}

// CheckAppointment возвращает вердикт без записи
func (s *BookingService) CheckAppointment(ctx context.Context, workerID, serviceID int64, scheduledFor time.Time) (scheduling.Verdict, error) {
	scheduledFor = models.Naive(scheduledFor)

	worker, err := s.repo.GetWorker(ctx, workerID)
	if err != nil {
		return scheduling.Verdict{}, err
	}
	service, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return scheduling.Verdict{}, err
	}
	if err := checkOffer(*worker, *service); err != nil {
		return scheduling.Verdict{}, err
	}

	schedules, err := s.repo.GetWorkerSchedules(ctx, workerID)
	if err != nil {
		return scheduling.Verdict{}, err
	}
	sameDay, err := s.repo.GetWorkerAppointmentsOnDate(ctx, workerID, scheduledFor)
	if err != nil {
		return scheduling.Verdict{}, err
	}

	verdict := s.validator.CheckAppointment(*worker, scheduledFor, *service, derefSchedules(schedules), derefAppointments(sameDay))
	metrics.IncVerdict("appointment", verdict.Kind.String())
	return verdict, nil
}

func (s *BookingService) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	appt.ScheduledFor = models.Naive(appt.ScheduledFor)
	if err := s.ValidateScheduledFor(appt.ScheduledFor); err != nil {
		return err
	}
	if err := s.throttle(ctx, appt.ClientID); err != nil {
		return err
	}

	start := time.Now()
	err := s.repo.CreateAppointmentGuarded(ctx, appt, s.guard(appt.ScheduledFor))
	metrics.ObserveGuardedWrite("create_appointment", time.Since(start).Seconds())
	if err != nil {
		s.logFailure(err, "create", appt)
		return err
	}

	metrics.IncAppointment("created")
	s.logger.Info().
		Int64("appointment_id", appt.ID).
		Int64("worker_id", appt.WorkerID).
		Time("scheduled_for", appt.ScheduledFor).
		Msg("Appointment created")
	s.publishEvent(events.EventAppointmentCreated, *appt, time.Time{})
	return nil
}

// RescheduleAppointment переносит запись и/или меняет услугу.
// Нулевое время или serviceID == 0 оставляют текущее значение.
func (s *BookingService) RescheduleAppointment(ctx context.Context, id, version int64, scheduledFor time.Time, serviceID int64) (*models.Appointment, error) {
	if scheduledFor.IsZero() && serviceID == 0 {
		return nil, fmt.Errorf("%w: scheduled_for or service_id is required", domain.ErrInvalidInput)
	}

	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if scheduledFor.IsZero() {
		scheduledFor = current.ScheduledFor
	}
	scheduledFor = models.Naive(scheduledFor)
	if err := s.ValidateScheduledFor(scheduledFor); err != nil {
		return nil, err
	}
	if err := s.throttle(ctx, current.ClientID); err != nil {
		return nil, err
	}

	appt := &models.Appointment{ID: id, ServiceID: serviceID, ScheduledFor: scheduledFor}
	start := time.Now()
	err = s.repo.RescheduleAppointmentGuarded(ctx, appt, version, s.guard(scheduledFor))
	metrics.ObserveGuardedWrite("reschedule_appointment", time.Since(start).Seconds())
	if err != nil {
		s.logFailure(err, "reschedule", appt)
		return nil, err
	}

	metrics.IncAppointment("rescheduled")
	s.publishEvent(events.EventAppointmentRescheduled, *appt, current.ScheduledFor)
	return appt, nil
}

func (s *BookingService) CancelAppointment(ctx context.Context, id, version int64) error {
	if err := s.repo.CancelAppointmentWithVersion(ctx, id, version); err != nil {
		return err
	}
	metrics.IncAppointment("cancelled")

	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("appointment_id", id).Msg("cancelled appointment reload failed")
		return nil
	}
	s.publishEvent(events.EventAppointmentCancelled, *appt, time.Time{})
	return nil
}

func (s *BookingService) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *BookingService) ListWorkerAppointments(ctx context.Context, workerID int64, filter models.DateFilter) ([]*models.Appointment, error) {
	if _, err := s.repo.GetWorker(ctx, workerID); err != nil {
		return nil, err
	}
	if filter.Lower != nil && filter.Upper != nil && filter.Upper.Before(*filter.Lower) {
		return nil, fmt.Errorf("%w: upper_date before lower_date", domain.ErrInvalidInput)
	}
	return s.repo.GetWorkerAppointments(ctx, workerID, filter)
}

func (s *BookingService) ListClientAppointments(ctx context.Context, clientID int64) ([]*models.Appointment, error) {
	return s.repo.GetClientAppointments(ctx, clientID)
}

// guard выполняется внутри критической секции хранилища
func (s *BookingService) guard(scheduledFor time.Time) domain.AppointmentGuard {
	return func(snapshot domain.AppointmentSnapshot) error {
		if err := checkOffer(snapshot.Worker, snapshot.Service); err != nil {
			return err
		}
		verdict := s.validator.CheckAppointment(snapshot.Worker, scheduledFor, snapshot.Service, snapshot.Schedules, snapshot.SameDay)
		metrics.IncVerdict("appointment", verdict.Kind.String())
		return verdict.Err()
	}
}

func (s *BookingService) throttle(ctx context.Context, clientID int64) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, clientID, s.cfg.AttemptLimit, s.cfg.AttemptWindowDuration())
	if err != nil {
		s.logger.Warn().Err(err).Int64("client_id", clientID).Msg("attempt limiter unavailable")
		return nil
	}
	if !allowed {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func checkOffer(worker models.Worker, service models.Service) error {
	if !worker.Provides(service.ID) {
		return fmt.Errorf("%w: worker %d, service %d", domain.ErrServiceNotProvided, worker.ID, service.ID)
	}
	if d := service.Duration(); d < 0 || d >= maxServiceDuration {
		return fmt.Errorf("%w: %s", domain.ErrInvalidDuration, d)
	}
	return nil
}

func (s *BookingService) logFailure(err error, op string, appt *models.Appointment) {
	event := s.logger.Warn()
	if _, ok := scheduling.KindOf(err); !ok && !isDomainError(err) {
		event = s.logger.Error()
	}
	event.Err(err).
		Str("op", op).
		Int64("worker_id", appt.WorkerID).
		Time("scheduled_for", appt.ScheduledFor).
		Msg("appointment write rejected")
}

func (s *BookingService) publishEvent(eventType string, appt models.Appointment, previous time.Time) {
	if s.eventBus == nil {
		return
	}

	payload := events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		ClientID:      appt.ClientID,
		WorkerID:      appt.WorkerID,
		ServiceID:     appt.ServiceID,
		ScheduledFor:  appt.ScheduledFor,
		Previous:      previous,
		Status:        appt.Status,
		Version:       appt.Version,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("appointment_id", appt.ID).Msg("publish event error")
	}
}

var domainErrors = []error{
	domain.ErrNotFound,
	domain.ErrConcurrentModification,
	domain.ErrPastDate,
	domain.ErrTooSoon,
	domain.ErrDateTooFar,
	domain.ErrTooManyAttempts,
	domain.ErrServiceNotProvided,
	domain.ErrInvalidWindow,
	domain.ErrInvalidDuration,
	domain.ErrAlreadyCancelled,
	domain.ErrInvalidInput,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func derefSchedules(in []*models.ScheduleEntry) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, 0, len(in))
	for _, e := range in {
		out = append(out, *e)
	}
	return out
}

func derefAppointments(in []*models.Appointment) []models.Appointment {
	out := make([]models.Appointment, 0, len(in))
	for _, a := range in {
		out = append(out, *a)
	}
	return out
}
