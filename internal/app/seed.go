package app

import (
	"context"
	"fmt"
	"os"

	"zapis/internal/models"

	"gopkg.in/yaml.v2"
)

// Seed is the directory bootstrap file. IDs inside it are local to the file
// and are remapped to the IDs the store assigns.
type Seed struct {
	Locations []models.Location `yaml:"locations"`
	Services  []models.Service  `yaml:"services"`
	Workers   []models.Worker   `yaml:"workers"`
	Schedules []SeedSchedule    `yaml:"schedules"`
}

type SeedSchedule struct {
	WorkerID   int64            `yaml:"worker_id"`
	LocationID int64            `yaml:"location_id"`
	Day        string           `yaml:"day"`
	Start      models.TimeOfDay `yaml:"start"`
	End        models.TimeOfDay `yaml:"end"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}

// ApplySeed fills an empty directory. It returns false without touching the
// store when any location already exists.
func (a *App) ApplySeed(ctx context.Context, seed *Seed) (bool, error) {
	existing, err := a.Directory.ListLocations(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	locationIDs := make(map[int64]int64, len(seed.Locations))
	for _, l := range seed.Locations {
		fileID := l.ID
		if err := a.Directory.CreateLocation(ctx, &l); err != nil {
			return false, fmt.Errorf("seed location %d: %w", fileID, err)
		}
		locationIDs[fileID] = l.ID
	}

	serviceIDs := make(map[int64]int64, len(seed.Services))
	for _, s := range seed.Services {
		fileID := s.ID
		if err := a.Directory.CreateService(ctx, &s); err != nil {
			return false, fmt.Errorf("seed service %d: %w", fileID, err)
		}
		serviceIDs[fileID] = s.ID
	}

	workerIDs := make(map[int64]int64, len(seed.Workers))
	for _, w := range seed.Workers {
		fileID := w.ID
		mapped := make([]int64, 0, len(w.ServiceIDs))
		for _, id := range w.ServiceIDs {
			created, ok := serviceIDs[id]
			if !ok {
				return false, fmt.Errorf("seed worker %d: unknown service %d", fileID, id)
			}
			mapped = append(mapped, created)
		}
		w.ServiceIDs = mapped
		if err := a.Directory.CreateWorker(ctx, &w); err != nil {
			return false, fmt.Errorf("seed worker %d: %w", fileID, err)
		}
		workerIDs[fileID] = w.ID
	}

	for i, s := range seed.Schedules {
		day, err := models.ParseWeekday(s.Day)
		if err != nil {
			return false, fmt.Errorf("seed schedule %d: %w", i, err)
		}
		workerID, ok := workerIDs[s.WorkerID]
		if !ok {
			return false, fmt.Errorf("seed schedule %d: unknown worker %d", i, s.WorkerID)
		}
		locationID, ok := locationIDs[s.LocationID]
		if !ok {
			return false, fmt.Errorf("seed schedule %d: unknown location %d", i, s.LocationID)
		}

		entry := &models.ScheduleEntry{
			WorkerID:   workerID,
			LocationID: locationID,
			DayOfWeek:  day,
			Window:     models.TimeWindow{Start: s.Start, End: s.End},
		}
		if err := a.Schedules.CreateSchedule(ctx, entry); err != nil {
			return false, fmt.Errorf("seed schedule %d: %w", i, err)
		}
	}

	a.Logger.Info().
		Int("locations", len(seed.Locations)).
		Int("services", len(seed.Services)).
		Int("workers", len(seed.Workers)).
		Int("schedules", len(seed.Schedules)).
		Msg("directory seeded")
	return true, nil
}
