package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventAppointmentCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := AppointmentEventPayload{AppointmentID: 5, WorkerID: 7, Status: "booked"}
	if err := bus.PublishJSON(EventAppointmentCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventAppointmentCreated {
		t.Errorf("expected type %s, got %s", EventAppointmentCreated, received.Type)
	}
	if received.ID != 1 {
		t.Errorf("expected first event to get ID 1, got %d", received.ID)
	}

	var decoded AppointmentEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.AppointmentID != 5 || decoded.WorkerID != 7 {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestEventBusWildcardAndErrors(t *testing.T) {
	bus := NewEventBus()
	var specific, all int
	boom := errors.New("boom")

	bus.Subscribe(EventScheduleCreated, func(_ *Event) error { specific++; return boom })
	bus.Subscribe(AllEvents, func(_ *Event) error { all++; return nil })

	err := bus.Publish(&Event{Type: EventScheduleCreated})
	if !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
	if err := bus.Publish(&Event{Type: EventScheduleDeleted}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if specific != 1 || all != 2 {
		t.Errorf("expected specific=1 all=2, got %d and %d", specific, all)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	if err := bus.Publish(&Event{Type: "unknown"}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}

func TestNewJSONEvent(t *testing.T) {
	when := time.Date(2022, 7, 4, 9, 0, 0, 0, time.UTC)
	event, err := NewJSONEvent(EventAppointmentRescheduled, AppointmentEventPayload{AppointmentID: 123, ScheduledFor: when})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}
	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded AppointmentEventPayload
	if err := json.Unmarshal(event.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.AppointmentID != 123 || !decoded.ScheduledFor.Equal(when) {
		t.Errorf("unexpected payload %+v", decoded)
	}

	if _, err := NewJSONEvent("bad", make(chan int)); err == nil {
		t.Errorf("expected marshal error for channel payload")
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus()
	bus.Subscribe(AllEvents, LogHandler(&logger))

	if err := bus.PublishJSON(EventAppointmentCancelled, ScheduleEventPayload{ScheduleID: 9}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"event":"appointment_cancelled"`) || !strings.Contains(out, `"schedule_id":9`) {
		t.Errorf("unexpected log output: %s", out)
	}
}
