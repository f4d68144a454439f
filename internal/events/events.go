package events

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventAppointmentCreated     = "appointment_created"
	EventAppointmentRescheduled = "appointment_rescheduled"
	EventAppointmentCancelled   = "appointment_cancelled"
	EventScheduleCreated        = "schedule_created"
	EventScheduleDeleted        = "schedule_deleted"

	// AllEvents subscribes a handler to every event type.
	AllEvents = "*"
)

// AppointmentEventPayload describes the appointment snapshot for event consumers.
type AppointmentEventPayload struct {
	AppointmentID int64     `json:"appointment_id"`
	ClientID      int64     `json:"client_id"`
	WorkerID      int64     `json:"worker_id"`
	ServiceID     int64     `json:"service_id"`
	ScheduledFor  time.Time `json:"scheduled_for"`
	Previous      time.Time `json:"previous,omitempty"`
	Status        string    `json:"status"`
	Version       int64     `json:"version"`
}

// ScheduleEventPayload is published when a worker schedule entry changes.
type ScheduleEventPayload struct {
	ScheduleID int64  `json:"schedule_id"`
	WorkerID   int64  `json:"worker_id"`
	LocationID int64  `json:"location_id"`
	DayOfWeek  string `json:"day_of_week"`
	Window     string `json:"window"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type or AllEvents.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers synchronously and joins their errors.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// LogHandler writes every event to the audit log.
func LogHandler(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		logger.Info().
			Int64("event_id", event.ID).
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("Domain event")
		return nil
	}
}
