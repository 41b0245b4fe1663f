package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripledoble",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripledoble",
			Name:      "reservation_transitions_total",
			Help:      "Reservation lifecycle transitions by resulting status.",
		},
		[]string{"status"},
	)

	rangeConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripledoble",
			Name:      "range_conflicts_total",
			Help:      "Selections rejected because the range was no longer available.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationTransitions, rangeConflicts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncReservation counts a lifecycle transition into the given status.
func IncReservation(status string) {
	reservationTransitions.WithLabelValues(status).Inc()
}

// IncRangeConflict counts a failed selection confirm.
func IncRangeConflict() {
	rangeConflicts.Inc()
}
