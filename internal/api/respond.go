package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"zapis/internal/domain"
	"zapis/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeVerdict answers a read-only check: 200 when available, 400 for a bad
// time of day, 409 for every other verdict.
func writeVerdict(w http.ResponseWriter, verdict scheduling.Verdict) {
	body := map[string]string{"verdict": verdict.Kind.String()}
	switch verdict.Kind {
	case scheduling.Available:
		writeJSON(w, http.StatusOK, body)
	case scheduling.InvalidTime:
		body["error"] = verdict.Err().Error()
		writeJSON(w, http.StatusBadRequest, body)
	default:
		body["error"] = verdict.Err().Error()
		writeJSON(w, http.StatusConflict, body)
	}
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	if kind, ok := scheduling.KindOf(err); ok {
		code := http.StatusConflict
		if kind == scheduling.InvalidTime {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, map[string]string{"verdict": kind.String(), "error": err.Error()})
		return
	}

	writeError(w, httpStatus(err), publicMessage(err))
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConcurrentModification), errors.Is(err, domain.ErrAlreadyCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrPastDate),
		errors.Is(err, domain.ErrTooSoon),
		errors.Is(err, domain.ErrDateTooFar),
		errors.Is(err, domain.ErrServiceNotProvided),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	if httpStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
