package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	UpdateProcessingTime prometheus.Histogram
	ErrorsTotal          prometheus.Counter
	DecisionsTotal       *prometheus.CounterVec
	NotificationsTotal   prometheus.Counter
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of panics recovered in update handlers",
		}),

		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_reservation_decisions_total",
			Help: "Admin confirm/reject decisions by outcome",
		}, []string{"decision", "outcome"}),

		NotificationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_notifications_total",
			Help: "Total number of new-reservation notifications sent to admins",
		}),
	}
}
