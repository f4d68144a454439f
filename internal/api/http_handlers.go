package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zapis/internal/export"
	"zapis/internal/models"
)

// weekdayParam decodes a day given either as a name or as a number.
type weekdayParam models.Weekday

func (w *weekdayParam) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	day, err := models.ParseWeekday(raw)
	if err != nil {
		return err
	}
	*w = weekdayParam(day)
	return nil
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func dateFilter(r *http.Request) (models.DateFilter, error) {
	var f models.DateFilter
	var err error
	if f.Specific, err = queryDate(r, "specific_date"); err != nil {
		return f, err
	}
	if f.Lower, err = queryDate(r, "lower_date"); err != nil {
		return f, err
	}
	if f.Upper, err = queryDate(r, "upper_date"); err != nil {
		return f, err
	}
	return f, nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		if err := s.svc.Ready(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.svc.Directory.ListLocations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations})
}

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.svc.Directory.ListServices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	workers, err := s.svc.Directory.ListWorkers(r.Context(), date, r.URL.Query().Get("profession"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workers": workers})
}

func (s *HTTPServer) handleLocationAvailability(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		DayOfWeek *weekdayParam    `json:"day_of_week"`
		Start     models.TimeOfDay `json:"start"`
		End       models.TimeOfDay `json:"end"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.DayOfWeek == nil {
		writeError(w, http.StatusBadRequest, "day_of_week is required")
		return
	}

	verdict, err := s.svc.Schedules.CheckLocation(r.Context(), locationID, models.Weekday(*body.DayOfWeek),
		models.TimeWindow{Start: body.Start, End: body.End})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeVerdict(w, verdict)
}

func (s *HTTPServer) handleWorkerAvailability(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		ServiceID    int64  `json:"service_id"`
		ScheduledFor string `json:"scheduled_for"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scheduledFor, err := models.ParseDateTime(body.ScheduledFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, err := s.svc.Bookings.CheckAppointment(r.Context(), workerID, body.ServiceID, scheduledFor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeVerdict(w, verdict)
}

func (s *HTTPServer) handleWorkerAppointments(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := dateFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointments, err := s.svc.Bookings.ListWorkerAppointments(r.Context(), workerID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.svc.Exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}
	workerID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := dateFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.svc.Exporter.WorkerWorkbook(r.Context(), workerID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(workerID, filter)))
	if _, err := f.WriteTo(w); err != nil {
		s.log.Error().Err(err).Int64("worker_id", workerID).Msg("failed to stream workbook")
	}
}

func (s *HTTPServer) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	workerID, err := queryID(r, "worker_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	schedules, err := s.svc.Schedules.ListWorkerSchedules(r.Context(), workerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules})
}

func (s *HTTPServer) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WorkerID   int64            `json:"worker_id"`
		LocationID int64            `json:"location_id"`
		DayOfWeek  *weekdayParam    `json:"day_of_week"`
		Start      models.TimeOfDay `json:"start"`
		End        models.TimeOfDay `json:"end"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.DayOfWeek == nil {
		writeError(w, http.StatusBadRequest, "day_of_week is required")
		return
	}

	entry := &models.ScheduleEntry{
		WorkerID:   body.WorkerID,
		LocationID: body.LocationID,
		DayOfWeek:  models.Weekday(*body.DayOfWeek),
		Window:     models.TimeWindow{Start: body.Start, End: body.End},
	}
	if err := s.svc.Schedules.CreateSchedule(r.Context(), entry); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *HTTPServer) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Schedules.DeleteSchedule(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleClientAppointments(w http.ResponseWriter, r *http.Request) {
	clientID, err := queryID(r, "client_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointments, err := s.svc.Bookings.ListClientAppointments(r.Context(), clientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID     int64  `json:"client_id"`
		WorkerID     int64  `json:"worker_id"`
		ServiceID    int64  `json:"service_id"`
		ScheduledFor string `json:"scheduled_for"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scheduledFor, err := models.ParseDateTime(body.ScheduledFor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appt := &models.Appointment{
		ClientID:     body.ClientID,
		WorkerID:     body.WorkerID,
		ServiceID:    body.ServiceID,
		ScheduledFor: scheduledFor,
	}
	if err := s.svc.Bookings.CreateAppointment(r.Context(), appt); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appt, err := s.svc.Bookings.GetAppointment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleRescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Version      int64  `json:"version"`
		ScheduledFor string `json:"scheduled_for"`
		ServiceID    int64  `json:"service_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Version <= 0 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}
	// zero time keeps the current one
	var scheduledFor time.Time
	if strings.TrimSpace(body.ScheduledFor) != "" {
		if scheduledFor, err = models.ParseDateTime(body.ScheduledFor); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	appt, err := s.svc.Bookings.RescheduleAppointment(r.Context(), id, body.Version, scheduledFor, body.ServiceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	version, err := queryID(r, "version")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.Bookings.CancelAppointment(r.Context(), id, version); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
