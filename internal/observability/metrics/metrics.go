package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for the conversation and booking flows.
type SchedulingMetrics struct {
	messagesTotal      *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	remindersTotal     *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "dialogue",
			Name:      "messages_total",
			Help:      "Total chat messages processed, by conversation state",
		}, []string{"state"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "scheduling",
			Name:      "cancellations_total",
			Help:      "Total appointment cancellations",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "notify",
			Name:      "sends_total",
			Help:      "Total notification sends, by kind and channel",
		}, []string{"kind", "channel", "status"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthfirst",
			Subsystem: "reminder",
			Name:      "dispatched_total",
			Help:      "Total reminders dispatched, by stage",
		}, []string{"stage", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.bookingsTotal, m.cancellationsTotal, m.notificationsTotal, m.remindersTotal)
	return m
}

func (m *SchedulingMetrics) ObserveMessage(state string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(state).Inc()
}

func (m *SchedulingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *SchedulingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *SchedulingMetrics) ObserveNotification(kind, channel string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, channel, status).Inc()
}

func (m *SchedulingMetrics) ObserveReminder(stage string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.remindersTotal.WithLabelValues(stage, status).Inc()
}
