package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for AuthEvents.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeError        = "error"
)

var (
	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "useradmin_auth_events_total",
			Help: "Authentication and authorization outcomes by operation",
		},
		[]string{"operation", "outcome"},
	)
	usersManaged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "useradmin_user_changes_total",
			Help: "User rows created, deleted or re-roled",
		},
		[]string{"change"},
	)
	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(authEvents, usersManaged)
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Auth records one outcome of register, login or the admin gate.
func Auth(operation, outcome string) {
	authEvents.WithLabelValues(operation, outcome).Inc()
}

// UserChanged records a successful create, delete or role change.
func UserChanged(change string) {
	usersManaged.WithLabelValues(change).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
