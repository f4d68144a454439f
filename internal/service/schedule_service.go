package service

import (
	"context"
	"fmt"
	"time"

	"zapis/internal/domain"
	"zapis/internal/events"
	"zapis/internal/metrics"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"github.com/rs/zerolog"
)

type ScheduleService struct {
	repo      domain.Repository
	eventBus  domain.EventPublisher
	validator *scheduling.Validator
	logger    *zerolog.Logger
}

var _ domain.ScheduleService = (*ScheduleService)(nil)

func NewScheduleService(repo domain.Repository, eventBus domain.EventPublisher, validator *scheduling.Validator, logger *zerolog.Logger) *ScheduleService {
	if validator == nil {
		validator = scheduling.NewValidator()
	}
	return &ScheduleService{
		repo:      repo,
		eventBus:  eventBus,
		validator: validator,
		logger:    logger,
	}
}

// CreateSchedule добавляет окно работы, если локация свободна
func (s *ScheduleService) CreateSchedule(ctx context.Context, entry *models.ScheduleEntry) error {
	if !entry.DayOfWeek.Valid() {
		return fmt.Errorf("%w: day_of_week %d", domain.ErrInvalidInput, int(entry.DayOfWeek))
	}
	if err := scheduling.ValidateWindow(entry.Window).Err(); err != nil {
		return err
	}
	if !entry.Window.Start.Before(entry.Window.End) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidWindow, entry.Window)
	}

	guard := func(snapshot domain.ScheduleSnapshot) error {
		verdict := s.validator.CheckLocationAvailability(snapshot.Location, entry.DayOfWeek, entry.Window, snapshot.Existing)
		metrics.IncVerdict("location", verdict.Kind.String())
		return verdict.Err()
	}

	start := time.Now()
	err := s.repo.CreateScheduleGuarded(ctx, entry, guard)
	metrics.ObserveGuardedWrite("create_schedule", time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn().Err(err).
			Int64("worker_id", entry.WorkerID).
			Int64("location_id", entry.LocationID).
			Str("window", entry.Window.String()).
			Msg("schedule rejected")
		return err
	}

	s.logger.Info().Int64("schedule_id", entry.ID).Str("entry", entry.String()).Msg("Schedule created")
	s.publish(events.EventScheduleCreated, entry)
	return nil
}

// CheckLocation только проверяет, ничего не записывая
func (s *ScheduleService) CheckLocation(ctx context.Context, locationID int64, day models.Weekday, window models.TimeWindow) (scheduling.Verdict, error) {
	if !day.Valid() {
		return scheduling.Verdict{}, fmt.Errorf("%w: day_of_week %d", domain.ErrInvalidInput, int(day))
	}
	location, err := s.repo.GetLocation(ctx, locationID)
	if err != nil {
		return scheduling.Verdict{}, err
	}
	existing, err := s.repo.GetLocationSchedules(ctx, locationID, day)
	if err != nil {
		return scheduling.Verdict{}, err
	}

	verdict := s.validator.CheckLocationAvailability(*location, day, window, derefSchedules(existing))
	metrics.IncVerdict("location", verdict.Kind.String())
	return verdict, nil
}

func (s *ScheduleService) ListWorkerSchedules(ctx context.Context, workerID int64) ([]*models.ScheduleEntry, error) {
	if _, err := s.repo.GetWorker(ctx, workerID); err != nil {
		return nil, err
	}
	return s.repo.GetWorkerSchedules(ctx, workerID)
}

func (s *ScheduleService) DeleteSchedule(ctx context.Context, id int64) error {
	entry, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	s.publish(events.EventScheduleDeleted, entry)
	return nil
}

func (s *ScheduleService) publish(eventType string, entry *models.ScheduleEntry) {
	if s.eventBus == nil {
		return
	}
	payload := events.ScheduleEventPayload{
		ScheduleID: entry.ID,
		WorkerID:   entry.WorkerID,
		LocationID: entry.LocationID,
		DayOfWeek:  entry.DayOfWeek.String(),
		Window:     entry.Window.String(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("schedule_id", entry.ID).Msg("publish event error")
	}
}
