package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zapis/internal/domain"
	"zapis/internal/models"

	"github.com/rs/zerolog"
)

type DirectoryService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

var _ domain.DirectoryService = (*DirectoryService)(nil)

func NewDirectoryService(repo domain.Repository, logger *zerolog.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, logger: logger}
}

func (s *DirectoryService) CreateLocation(ctx context.Context, location *models.Location) error {
	if strings.TrimSpace(location.City) == "" || strings.TrimSpace(location.Street) == "" {
		return fmt.Errorf("%w: location requires city and street", domain.ErrInvalidInput)
	}
	return s.repo.CreateLocation(ctx, location)
}

func (s *DirectoryService) CreateService(ctx context.Context, service *models.Service) error {
	switch {
	case strings.TrimSpace(service.Name) == "":
		return fmt.Errorf("%w: service name is empty", domain.ErrInvalidInput)
	case !models.ValidCurrency(service.Currency):
		return fmt.Errorf("%w: currency %q", domain.ErrInvalidInput, service.Currency)
	case service.Price < 0:
		return fmt.Errorf("%w: negative price", domain.ErrInvalidInput)
	case service.Duration() < 0 || service.Duration() >= maxServiceDuration:
		return fmt.Errorf("%w: %s", domain.ErrInvalidDuration, service.Duration())
	}
	return s.repo.CreateService(ctx, service)
}

// CreateWorker проверяет, что все услуги работника существуют
func (s *DirectoryService) CreateWorker(ctx context.Context, worker *models.Worker) error {
	if strings.TrimSpace(worker.FirstName) == "" {
		return fmt.Errorf("%w: worker first name is empty", domain.ErrInvalidInput)
	}
	for _, id := range worker.ServiceIDs {
		if _, err := s.repo.GetService(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.CreateWorker(ctx, worker)
}

// ListWorkers фильтрует по дню недели даты и по профессии без учета регистра
func (s *DirectoryService) ListWorkers(ctx context.Context, date *time.Time, profession string) ([]*models.Worker, error) {
	var (
		workers []*models.Worker
		err     error
	)
	if date != nil {
		workers, err = s.repo.ListWorkersOnDay(ctx, models.WeekdayOf(*date))
	} else {
		workers, err = s.repo.ListWorkers(ctx)
	}
	if err != nil {
		return nil, err
	}

	profession = strings.TrimSpace(profession)
	if profession == "" {
		return workers, nil
	}

	filtered := make([]*models.Worker, 0, len(workers))
	for _, w := range workers {
		if strings.EqualFold(w.Profession, profession) {
			filtered = append(filtered, w)
		}
	}
	return filtered, nil
}

func (s *DirectoryService) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	return s.repo.GetWorker(ctx, id)
}

func (s *DirectoryService) ListLocations(ctx context.Context) ([]*models.Location, error) {
	return s.repo.ListLocations(ctx)
}

func (s *DirectoryService) ListServices(ctx context.Context) ([]*models.Service, error) {
	return s.repo.ListServices(ctx)
}

func (s *DirectoryService) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return s.repo.GetService(ctx, id)
}
