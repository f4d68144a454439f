package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ScheduleEntry is one recurring weekly availability block of a worker at a location.
type ScheduleEntry struct {
	ID         int64      `json:"id" yaml:"id"`
	WorkerID   int64      `json:"worker_id" yaml:"worker_id"`
	LocationID int64      `json:"location_id" yaml:"location_id"`
	DayOfWeek  Weekday    `json:"day_of_week" yaml:"day_of_week"`
	Window     TimeWindow `json:"window" yaml:"window"`
	CreatedAt  time.Time  `json:"created_at" yaml:"-"`
}

func (e ScheduleEntry) String() string {
	return fmt.Sprintf("worker %d @ location %d | %s | %s", e.WorkerID, e.LocationID, e.DayOfWeek, e.Window)
}

type Appointment struct {
	ID        int64 `json:"id"`
	ClientID  int64 `json:"client_id"`
	WorkerID  int64 `json:"worker_id"`
	ServiceID int64 `json:"service_id"`
	// ScheduledFor is naive local time; its Location carries no meaning.
	ScheduledFor time.Time `json:"scheduled_for"`
	// DurationSeconds is copied from the booked service when the snapshot is read.
	DurationSeconds int64     `json:"duration_seconds"`
	Status          string    `json:"status"` // booked, cancelled
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

func (a Appointment) Duration() time.Duration {
	return time.Duration(a.DurationSeconds) * time.Second
}

func (a Appointment) EndTime() time.Time {
	return a.ScheduledFor.Add(a.Duration())
}

type appointmentJSON Appointment

// MarshalJSON writes scheduled_for and end_time without a zone, in DateTimeLayout.
func (a Appointment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		appointmentJSON
		ScheduledFor string `json:"scheduled_for"`
		EndTime      string `json:"end_time"`
	}{
		appointmentJSON: appointmentJSON(a),
		ScheduledFor:    a.ScheduledFor.Format(DateTimeLayout),
		EndTime:         a.EndTime().Format(DateTimeLayout),
	})
}

func (a *Appointment) UnmarshalJSON(data []byte) error {
	aux := struct {
		*appointmentJSON
		ScheduledFor string `json:"scheduled_for"`
		EndTime      string `json:"end_time"`
	}{appointmentJSON: (*appointmentJSON)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.ScheduledFor == "" {
		a.ScheduledFor = time.Time{}
		return nil
	}
	scheduledFor, err := ParseDateTime(aux.ScheduledFor)
	if err != nil {
		return err
	}
	a.ScheduledFor = scheduledFor
	return nil
}

// DateFilter narrows appointment listings. Specific wins over the range bounds.
type DateFilter struct {
	Specific *time.Time
	Lower    *time.Time
	Upper    *time.Time
}

func (f DateFilter) Empty() bool {
	return f.Specific == nil && f.Lower == nil && f.Upper == nil
}

// Naive drops the zone while keeping the wall clock.
func Naive(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// DateOf returns naive midnight of t's calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDateTime accepts DateTimeLayout, StorageTimeLayout and LegacyDateTimeLayout.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateTimeLayout, StorageTimeLayout, LegacyDateTimeLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q; expected YYYY-MM-DDTHH:MM:SS", s)
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, LegacyDateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", s)
}
