package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ffws"

// Metrics holds the Prometheus collectors for ingestion and discharge.
type Metrics struct {
	FetchCycles   *prometheus.CounterVec   // labels: source, outcome={success,partial,failed}
	FetchDuration *prometheus.HistogramVec // labels: source
	RecordsSaved  *prometheus.CounterVec   // labels: source
	RecordsFailed *prometheus.CounterVec   // labels: source
	SourcesDue    prometheus.Gauge

	Provisioned           prometheus.Counter
	DischargeCalculations *prometheus.CounterVec // labels: series={actual,predicted}, outcome={success,skipped,failed}
	AlertsPublished       *prometheus.CounterVec // labels: status
}

func build(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		FetchCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cycles_total",
			Help:      help("Fetch cycles by source and outcome."),
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("Duration of one fetch-parse-store cycle."),
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
		RecordsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      help("Readings stored per source."),
		}, []string{"source"}),
		RecordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_failed_total",
			Help:      help("Records that could not be stored per source."),
		}, []string{"source"}),
		SourcesDue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sources_due",
			Help:      help("Sources selected by the last due poll."),
		}),
		Provisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensors_provisioned_total",
			Help:      help("Sensors created by auto-provisioning."),
		}),
		DischargeCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharge_calculations_total",
			Help:      help("Discharge calculations by series and outcome."),
		}, []string{"series", "outcome"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      help("Threshold alerts published by status."),
		}, []string{"status"}),
	}
}

// NewMetrics creates and registers all collectors with the default registry.
func NewMetrics() *Metrics {
	m := build(true)
	prometheus.MustRegister(
		m.FetchCycles,
		m.FetchDuration,
		m.RecordsSaved,
		m.RecordsFailed,
		m.SourcesDue,
		m.Provisioned,
		m.DischargeCalculations,
		m.AlertsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build
// many instances.
func NewMetricsForTesting() *Metrics {
	return build(false)
}

// ObserveFetch records one finished cycle. Safe on a nil receiver.
func (m *Metrics) ObserveFetch(source, outcome string, d time.Duration, saved, failed int) {
	if m == nil {
		return
	}
	m.FetchCycles.WithLabelValues(source, outcome).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
	m.RecordsSaved.WithLabelValues(source).Add(float64(saved))
	m.RecordsFailed.WithLabelValues(source).Add(float64(failed))
}

func (m *Metrics) SetSourcesDue(n int) {
	if m == nil {
		return
	}
	m.SourcesDue.Set(float64(n))
}

func (m *Metrics) IncProvisioned() {
	if m == nil {
		return
	}
	m.Provisioned.Inc()
}

func (m *Metrics) ObserveDischarge(series, outcome string) {
	if m == nil {
		return
	}
	m.DischargeCalculations.WithLabelValues(series, outcome).Inc()
}

func (m *Metrics) IncAlert(status string) {
	if m == nil {
		return
	}
	m.AlertsPublished.WithLabelValues(status).Inc()
}
