package scheduling

import (
	"time"

	"zapis/internal/models"
)

// Validator answers the two booking questions on top of the conflict predicates.
// It holds no state and is safe for concurrent use.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// CheckLocationAvailability range-checks both window bounds before looking for overlaps.
func (v *Validator) CheckLocationAvailability(location models.Location, day models.Weekday, window models.TimeWindow, existing []models.ScheduleEntry) Verdict {
	if verdict := ValidateWindow(window); !verdict.Available() {
		return verdict
	}
	if !IsLocationFree(location.ID, day, window, existing) {
		return Verdict{Kind: LocationOccupied}
	}
	return Verdict{Kind: Available}
}

// CheckAppointment does not check that scheduledFor lies in the future.
func (v *Validator) CheckAppointment(worker models.Worker, scheduledFor time.Time, service models.Service, schedules []models.ScheduleEntry, appointments []models.Appointment) Verdict {
	return IsAppointmentAvailable(worker.ID, scheduledFor, service, schedules, appointments)
}
