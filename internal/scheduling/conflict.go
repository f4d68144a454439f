package scheduling

import (
	"time"

	"zapis/internal/models"
)

// All predicates below work on caller supplied snapshots and never modify them.
// Bounds are compared as seconds since midnight without wrapping, so a slot
// that runs past 24:00 ends after every window and never fits one.

// IsLocationFree reports whether requested overlaps no window already claimed at
// locationID on day. Touching bounds count as overlap.
func IsLocationFree(locationID int64, day models.Weekday, requested models.TimeWindow, existing []models.ScheduleEntry) bool {
	for _, entry := range existing {
		if entry.LocationID != locationID || entry.DayOfWeek != day {
			continue
		}
		if windowsOverlap(requested, entry.Window) {
			return false
		}
	}
	return true
}

// IsWithinSchedule reports whether [scheduledFor, scheduledFor+duration] fits inside
// one of the worker's windows on scheduledFor's weekday.
func IsWithinSchedule(workerID int64, scheduledFor time.Time, duration time.Duration, schedules []models.ScheduleEntry) bool {
	start, end := slotBounds(scheduledFor, duration)
	day := models.WeekdayOf(scheduledFor)

	for _, entry := range schedules {
		if entry.WorkerID != workerID || entry.DayOfWeek != day {
			continue
		}
		winStart, winEnd := int64(entry.Window.Start.Seconds()), int64(entry.Window.End.Seconds())
		if winStart <= start && start <= winEnd && end <= winEnd {
			return true
		}
	}
	return false
}

// HasFreeSlot reports whether the requested slot clashes with none of the worker's
// appointments on the same calendar day. Appointments that only touch at a bound
// still clash.
func HasFreeSlot(workerID int64, scheduledFor time.Time, duration time.Duration, sameDay []models.Appointment) bool {
	reqStart, reqEnd := slotBounds(scheduledFor, duration)

	for _, appt := range sameDay {
		if appt.WorkerID != workerID || appt.Status == models.StatusCancelled {
			continue
		}
		if !models.SameDate(appt.ScheduledFor, scheduledFor) {
			continue
		}

		exStart, exEnd := slotBounds(appt.ScheduledFor, appt.Duration())
		switch {
		case between(reqStart, exStart, exEnd), between(reqEnd, exStart, exEnd):
			return false
		case between(exStart, reqStart, reqEnd):
			return false
		}
	}
	return true
}

// IsAppointmentAvailable checks the schedule first and existing bookings second.
func IsAppointmentAvailable(workerID int64, scheduledFor time.Time, service models.Service, schedules []models.ScheduleEntry, sameDay []models.Appointment) Verdict {
	duration := service.Duration()

	if !IsWithinSchedule(workerID, scheduledFor, duration, schedules) {
		return Verdict{Kind: OutsideSchedule}
	}
	if !HasFreeSlot(workerID, scheduledFor, duration, sameDay) {
		return Verdict{Kind: SlotOccupied}
	}
	return Verdict{Kind: Available}
}

func windowsOverlap(a, b models.TimeWindow) bool {
	return a.Start.Seconds() <= b.End.Seconds() && a.End.Seconds() >= b.Start.Seconds()
}

func slotBounds(scheduledFor time.Time, duration time.Duration) (int64, int64) {
	start := int64(models.TimeOfDayOf(scheduledFor).Seconds())
	return start, start + int64(duration/time.Second)
}

func between(v, lo, hi int64) bool {
	return lo <= v && v <= hi
}
