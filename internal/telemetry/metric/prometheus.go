package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aranea"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	SettingsLoads      *prometheus.CounterVec
	SettingsSaves      *prometheus.CounterVec
	SettingsBootstraps *prometheus.CounterVec
	SettingsFallbacks  prometheus.Counter

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with every application metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		SettingsLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "loads_total",
			Help:      "Settings file loads by result",
		}, []string{"result"}),
		SettingsSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "saves_total",
			Help:      "Settings file saves by result",
		}, []string{"result"}),
		SettingsBootstraps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "bootstrap_total",
			Help:      "First-boot default writes by result",
		}, []string{"result"}),
		SettingsFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "fallbacks_total",
			Help:      "Times the store fell back to defaults because loading failed",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"method"}),
	}

	reg.MustRegister(
		r.SettingsLoads,
		r.SettingsSaves,
		r.SettingsBootstraps,
		r.SettingsFallbacks,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer exposes the underlying registry for extra collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveLoad counts a settings load.
func (r *Registry) ObserveLoad(err error) {
	r.SettingsLoads.WithLabelValues(result(err)).Inc()
}

// ObserveSave counts a settings save.
func (r *Registry) ObserveSave(err error) {
	r.SettingsSaves.WithLabelValues(result(err)).Inc()
}

// ObserveBootstrap counts a first-boot default write.
func (r *Registry) ObserveBootstrap(err error) {
	r.SettingsBootstraps.WithLabelValues(result(err)).Inc()
}

// ObserveFallback counts a fall back to default settings.
func (r *Registry) ObserveFallback() {
	r.SettingsFallbacks.Inc()
}

// RecordRequest counts one HTTP request and its latency.
func (r *Registry) RecordRequest(method, status string, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, status).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
