package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zapis"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	verdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Scheduling verdicts by check and kind.",
		},
		[]string{"check", "kind"},
	)

	appointments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_total",
			Help:      "Appointment lifecycle transitions.",
		},
		[]string{"action"},
	)

	guardedWrites = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "guarded_write_seconds",
			Help:      "Duration of guarded store writes.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, verdicts, appointments, guardedWrites)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncHTTP increments the counter for an endpoint and status code.
func IncHTTP(endpoint string, code int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// IncVerdict counts a verdict produced by check ("appointment", "location").
func IncVerdict(check, kind string) {
	verdicts.WithLabelValues(check, kind).Inc()
}

// IncAppointment counts created, rescheduled and cancelled appointments.
func IncAppointment(action string) {
	appointments.WithLabelValues(action).Inc()
}

// ObserveGuardedWrite records how long a guarded write took.
func ObserveGuardedWrite(operation string, seconds float64) {
	guardedWrites.WithLabelValues(operation).Observe(seconds)
}
