package scheduling

import (
	"fmt"
	"testing"
	"time"

	"zapis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	workerID   int64 = 7
	locationID int64 = 3
)

// 2022-07-04 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2022, 7, 4, hour, minute, 0, 0, time.UTC)
}

func tod(hour, minute int) models.TimeOfDay {
	return models.NewTimeOfDay(hour, minute, 0)
}

func window(sh, sm, eh, em int) models.TimeWindow {
	return models.TimeWindow{Start: tod(sh, sm), End: tod(eh, em)}
}

func mondaySchedule() []models.ScheduleEntry {
	return []models.ScheduleEntry{
		{ID: 1, WorkerID: workerID, LocationID: locationID, DayOfWeek: models.Monday, Window: window(8, 0, 16, 0)},
	}
}

func booked(at time.Time, duration time.Duration) models.Appointment {
	return models.Appointment{
		WorkerID:        workerID,
		ServiceID:       1,
		ScheduledFor:    at,
		DurationSeconds: int64(duration / time.Second),
		Status:          models.StatusBooked,
	}
}

func TestIsLocationFree(t *testing.T) {
	existing := []models.ScheduleEntry{
		{WorkerID: 1, LocationID: locationID, DayOfWeek: models.Monday, Window: window(6, 30, 17, 30)},
	}

	t.Run("overlap inside", func(t *testing.T) {
		assert.False(t, IsLocationFree(locationID, models.Monday, window(7, 0, 8, 0), existing))
	})

	t.Run("after close", func(t *testing.T) {
		assert.True(t, IsLocationFree(locationID, models.Monday, window(17, 31, 19, 0), existing))
	})

	t.Run("touching end counts as overlap", func(t *testing.T) {
		assert.False(t, IsLocationFree(locationID, models.Monday, window(17, 30, 19, 0), existing))
	})

	t.Run("touching start counts as overlap", func(t *testing.T) {
		assert.False(t, IsLocationFree(locationID, models.Monday, window(5, 0, 6, 30), existing))
	})

	t.Run("other day", func(t *testing.T) {
		assert.True(t, IsLocationFree(locationID, models.Tuesday, window(7, 0, 8, 0), existing))
	})

	t.Run("other location", func(t *testing.T) {
		assert.True(t, IsLocationFree(locationID+1, models.Monday, window(7, 0, 8, 0), existing))
	})

	t.Run("empty snapshot", func(t *testing.T) {
		assert.True(t, IsLocationFree(locationID, models.Monday, window(7, 0, 8, 0), nil))
	})
}

func TestIsLocationFreeSymmetric(t *testing.T) {
	pairs := []struct {
		a, b models.TimeWindow
	}{
		{window(8, 0, 10, 0), window(9, 0, 11, 0)},
		{window(8, 0, 10, 0), window(10, 0, 11, 0)},
		{window(8, 0, 18, 0), window(9, 0, 10, 0)},
		{window(8, 0, 9, 0), window(8, 0, 9, 0)},
		{window(8, 0, 9, 0), window(9, 1, 10, 0)},
		{window(0, 0, 1, 0), window(23, 0, 23, 59)},
	}

	for _, p := range pairs {
		t.Run(fmt.Sprintf("%s vs %s", p.a, p.b), func(t *testing.T) {
			withA := []models.ScheduleEntry{{LocationID: locationID, DayOfWeek: models.Friday, Window: p.a}}
			withB := []models.ScheduleEntry{{LocationID: locationID, DayOfWeek: models.Friday, Window: p.b}}

			assert.Equal(t,
				IsLocationFree(locationID, models.Friday, p.b, withA),
				IsLocationFree(locationID, models.Friday, p.a, withB),
			)
		})
	}
}

func TestIsWithinSchedule(t *testing.T) {
	schedules := mondaySchedule()
	d := 40 * time.Minute

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"window start", monday(8, 0), true},
		{"middle", monday(12, 0), true},
		{"last fitting start", monday(15, 20), true},
		{"one minute too late", monday(15, 21), false},
		{"before opening", monday(7, 0), false},
		{"one minute before opening", monday(7, 59), false},
		{"at closing", monday(16, 0), false},
		{"tuesday", monday(8, 0).AddDate(0, 0, 1), false},
		{"next monday", monday(8, 0).AddDate(0, 0, 7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinSchedule(workerID, tt.at, d, schedules))
		})
	}

	t.Run("other worker", func(t *testing.T) {
		assert.False(t, IsWithinSchedule(workerID+1, monday(9, 0), d, schedules))
	})

	t.Run("zero duration at closing", func(t *testing.T) {
		assert.True(t, IsWithinSchedule(workerID, monday(16, 0), 0, schedules))
	})

	t.Run("second window on same day", func(t *testing.T) {
		split := append(mondaySchedule(), models.ScheduleEntry{
			WorkerID: workerID, LocationID: locationID, DayOfWeek: models.Monday, Window: window(17, 0, 20, 0),
		})
		assert.True(t, IsWithinSchedule(workerID, monday(17, 0), d, split))
		assert.False(t, IsWithinSchedule(workerID, monday(15, 50), d, split))
	})
}

func TestIsWithinScheduleRange(t *testing.T) {
	schedules := mondaySchedule()
	start, end := tod(8, 0).Seconds(), tod(16, 0).Seconds()

	for _, d := range []time.Duration{0, 15 * time.Minute, 40 * time.Minute, 8 * time.Hour} {
		lastStart := end - int(d/time.Second)
		for s := start - 600; s <= end+600; s += 300 {
			at := monday(0, 0).Add(time.Duration(s) * time.Second)
			want := s >= start && s <= lastStart
			assert.Equal(t, want, IsWithinSchedule(workerID, at, d, schedules), "duration %s start %s", d, at.Format("15:04:05"))
		}
	}
}

func TestIsWithinScheduleRejectsMidnightRollover(t *testing.T) {
	late := []models.ScheduleEntry{
		{WorkerID: workerID, DayOfWeek: models.Monday, Window: window(20, 0, 23, 59)},
	}

	assert.True(t, IsWithinSchedule(workerID, monday(23, 0), 30*time.Minute, late))
	assert.False(t, IsWithinSchedule(workerID, monday(23, 30), 2*time.Hour, late))
}

func TestHasFreeSlot(t *testing.T) {
	d := 40 * time.Minute
	existing := []models.Appointment{booked(monday(10, 0), d)}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"same start", monday(10, 0), false},
		{"starts inside", monday(10, 20), false},
		{"starts at existing end", monday(10, 40), false},
		{"ends at existing start", monday(9, 20), false},
		{"ends inside", monday(9, 30), false},
		{"disjoint before", monday(9, 0), true},
		{"disjoint after", monday(10, 41), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasFreeSlot(workerID, tt.at, d, existing))
		})
	}

	t.Run("new slot covers existing", func(t *testing.T) {
		short := []models.Appointment{booked(monday(10, 10), 10*time.Minute)}
		assert.False(t, HasFreeSlot(workerID, monday(10, 0), time.Hour, short))
	})

	t.Run("other worker", func(t *testing.T) {
		assert.True(t, HasFreeSlot(workerID+1, monday(10, 0), d, existing))
	})

	t.Run("other date", func(t *testing.T) {
		assert.True(t, HasFreeSlot(workerID, monday(10, 0).AddDate(0, 0, 7), d, existing))
	})

	t.Run("cancelled ignored", func(t *testing.T) {
		cancelled := booked(monday(10, 0), d)
		cancelled.Status = models.StatusCancelled
		assert.True(t, HasFreeSlot(workerID, monday(10, 0), d, []models.Appointment{cancelled}))
	})
}

func TestDisjointAppointmentsBothAvailable(t *testing.T) {
	service := models.Service{ID: 1, DurationSeconds: 40 * 60}
	first := monday(9, 0)
	second := monday(9, 41)

	a := booked(first, service.Duration())
	b := booked(second, service.Duration())

	assert.True(t, IsAppointmentAvailable(workerID, first, service, mondaySchedule(), []models.Appointment{b}).Available())
	assert.True(t, IsAppointmentAvailable(workerID, second, service, mondaySchedule(), []models.Appointment{a}).Available())
}

func TestIsAppointmentAvailable(t *testing.T) {
	service := models.Service{ID: 1, Name: "Haircut", DurationSeconds: 40 * 60}
	schedules := mondaySchedule()

	t.Run("available then occupied", func(t *testing.T) {
		var appointments []models.Appointment

		verdict := IsAppointmentAvailable(workerID, monday(8, 0), service, schedules, appointments)
		require.Equal(t, Available, verdict.Kind)

		appointments = append(appointments, booked(monday(8, 0), service.Duration()))

		verdict = IsAppointmentAvailable(workerID, monday(8, 0), service, schedules, appointments)
		assert.Equal(t, SlotOccupied, verdict.Kind)
	})

	t.Run("outside schedule", func(t *testing.T) {
		verdict := IsAppointmentAvailable(workerID, monday(7, 0), service, schedules, nil)
		assert.Equal(t, OutsideSchedule, verdict.Kind)
	})

	t.Run("schedule checked before bookings", func(t *testing.T) {
		appointments := []models.Appointment{booked(monday(15, 50), service.Duration())}
		verdict := IsAppointmentAvailable(workerID, monday(15, 50), service, schedules, appointments)
		assert.Equal(t, OutsideSchedule, verdict.Kind)
	})

	t.Run("inputs untouched", func(t *testing.T) {
		appointments := []models.Appointment{booked(monday(9, 0), service.Duration())}
		before := append([]models.Appointment(nil), appointments...)
		schedBefore := append([]models.ScheduleEntry(nil), schedules...)

		IsAppointmentAvailable(workerID, monday(9, 0), service, schedules, appointments)

		assert.Equal(t, before, appointments)
		assert.Equal(t, schedBefore, schedules)
	})
}
