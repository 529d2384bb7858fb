package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	AppointmentsBooked      prometheus.Counter
	AppointmentsCancelled   prometheus.Counter
	AppointmentsRescheduled prometheus.Counter
	AppointmentsCompleted   prometheus.Counter
	SlotConflicts           *prometheus.CounterVec

	// History metrics
	HistoryWrites        *prometheus.CounterVec
	HistoryAccessDenials *prometheus.CounterVec

	// Event publishing metrics
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec
}

// NewMetrics registers all application metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "booked_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "cancelled_total",
			Help:      "Total number of appointments cancelled",
		}),
		AppointmentsRescheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "rescheduled_total",
			Help:      "Total number of appointments moved to a new slot",
		}),
		AppointmentsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "completed_total",
			Help:      "Total number of appointments completed by a doctor",
		}),
		SlotConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "slot_conflicts_total",
			Help:      "Booking or reschedule attempts rejected because the slot was taken",
		}, []string{"operation"}),

		HistoryWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "writes_total",
			Help:      "Patient history records created or updated",
		}, []string{"operation"}),
		HistoryAccessDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "access_denied_total",
			Help:      "History reads and writes rejected by the authorizer",
		}, []string{"operation", "role"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Appointment events published",
		}, []string{"event_type"}),
		EventsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "failed_total",
			Help:      "Appointment events that could not be published",
		}, []string{"event_type"}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "hms")
}
