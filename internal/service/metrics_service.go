package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the process registry and the instruments the services and
// HTTP middleware record into.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	forecastRuns       *prometheus.CounterVec
	forecastDuration   prometheus.Histogram
	schedulesGenerated prometheus.Counter
	bookingConflicts   prometheus.Counter
}

// NewMetrics registers all instruments on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		forecastRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Forecast generation runs by terminal status.",
		}, []string{"status"}),
		forecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_generation_duration_seconds",
			Help:    "Wall-clock time of one slate generation.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		schedulesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_schedules_generated_total",
			Help: "Bookings produced by the forecast generator.",
		}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Booking attempts rejected by the conflict engine.",
		}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.forecastRuns,
		m.forecastDuration,
		m.schedulesGenerated,
		m.bookingConflicts,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveForecastRun records one terminal generation outcome.
func (m *Metrics) ObserveForecastRun(status string, elapsed time.Duration, schedules int) {
	if m == nil {
		return
	}
	m.forecastRuns.WithLabelValues(status).Inc()
	m.forecastDuration.Observe(elapsed.Seconds())
	if schedules > 0 {
		m.schedulesGenerated.Add(float64(schedules))
	}
}

// ObserveBookingConflict counts a rejected booking attempt.
func (m *Metrics) ObserveBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}
