package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for auto-booking runs.
type BookingMetrics struct {
	runsTotal     *prometheus.CounterVec
	outcomesTotal *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	remoteLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashbarber",
			Subsystem: "autobook",
			Name:      "runs_total",
			Help:      "Total booking runs by final status",
		}, []string{"status"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashbarber",
			Subsystem: "autobook",
			Name:      "slot_outcomes_total",
			Help:      "Slots processed by outcome",
		}, []string{"outcome", "reason"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cashbarber",
			Subsystem: "autobook",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a booking run",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"status"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cashbarber",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of CashBarber API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.outcomesTotal, m.runDuration, m.remoteLatency)
	return m
}

// ObserveRun records a finished run. status is "ok", "partial" or an error kind.
func (m *BookingMetrics) ObserveRun(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(seconds)
}

func (m *BookingMetrics) ObserveOutcome(kind, reason string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(kind, reason).Inc()
}

// ObserveRemoteCall records one CashBarber request. A zero status means the
// request never got a response.
func (m *BookingMetrics) ObserveRemoteCall(operation string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.remoteLatency.WithLabelValues(operation, label).Observe(seconds)
}
