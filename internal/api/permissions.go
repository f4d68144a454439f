package api

import (
	"net/http"
	"strings"

	"zapis/internal/config"
)

const (
	permCheckAvailability = "check:availability"
	permReadSchedules     = "read:schedules"
	permWriteSchedules    = "write:schedules"
	permReadAppointments  = "read:appointments"
	permWriteAppointments = "write:appointments"
	permExport            = "export:appointments"
	permReadDirectory     = "read:directory"

	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"
)

// hasPermission treats an empty permission list as allow-all.
func hasPermission(client config.APIClientKey, required string) bool {
	if required == "" || len(client.Permissions) == 0 {
		return true
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return true
		}
	}
	return false
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case checkAppointmentMethod, checkLocationMethod:
		return permCheckAvailability
	default:
		return ""
	}
}

func requiredPermissionHTTP(r *http.Request) string {
	path := strings.TrimSuffix(r.URL.Path, "/")
	read := r.Method == http.MethodGet || r.Method == http.MethodHead

	switch {
	case strings.HasSuffix(path, "/availability"):
		return permCheckAvailability
	case strings.HasSuffix(path, "/appointments/export"):
		return permExport
	case strings.HasPrefix(path, "/api/v1/workers/") && strings.HasSuffix(path, "/appointments"):
		return permReadAppointments
	case strings.HasPrefix(path, "/api/v1/schedules"):
		if read {
			return permReadSchedules
		}
		return permWriteSchedules
	case strings.HasPrefix(path, "/api/v1/appointments"):
		if read {
			return permReadAppointments
		}
		return permWriteAppointments
	case path == "/api/v1/workers", path == "/api/v1/locations", path == "/api/v1/services":
		return permReadDirectory
	default:
		return ""
	}
}

func headerNames(cfg config.APIAuthConfig) (apiKey, extra string) {
	apiKey = strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if apiKey == "" {
		apiKey = apiKeyHeaderDefault
	}
	extra = strings.ToLower(strings.TrimSpace(cfg.HeaderExtra))
	if extra == "" {
		extra = apiExtraHeaderDefault
	}
	return apiKey, extra
}
