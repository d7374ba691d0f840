package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "taxi_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the cleaning pipeline.
type Metrics struct {
	FilesProcessed    prometheus.Counter
	RowsRead          prometheus.Counter
	RowsWritten       prometheus.Counter
	RowsDropped       *prometheus.CounterVec // labels: reason={missing_distance_run,negative_duration}
	SentinelsReplaced prometheus.Counter
	UnparsedTimes     *prometheus.CounterVec // labels: field={start,end}
	InvalidFares      prometheus.Counter
	PipelineRunning   prometheus.Gauge

	FileProcessingDuration prometheus.Histogram
	RunDuration            prometheus.Gauge
	LastSuccess            prometheus.Gauge

	// Dashboard feed metrics.
	DatasetRows      prometheus.Gauge
	DashboardQueries prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Total source CSV files cleaned.",
		}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total rows read from source files.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total rows in the consolidated dataset.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows removed during cleaning by reason.",
		}, []string{"reason"}),
		SentinelsReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentinels_replaced_total",
			Help:      "Cells holding a sentinel null token that were set to missing.",
		}),
		UnparsedTimes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unparsed_timestamps_total",
			Help:      "Interval halves that could not be parsed, by field.",
		}, []string{"field"}),
		InvalidFares: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_fares_total",
			Help:      "Fare components holding non-numeric text.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a consolidation run is active.",
		}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_processing_duration_seconds",
			Help:      "Duration of loading and cleaning one source file.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last consolidation run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the dataset served to the dashboard.",
		}),
		DashboardQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_queries_total",
			Help:      "Dashboard aggregation requests served.",
		}),
	}
}

// Collectors lists every metric, for registration and Pushgateway pushes.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesProcessed,
		m.RowsRead,
		m.RowsWritten,
		m.RowsDropped,
		m.SentinelsReplaced,
		m.UnparsedTimes,
		m.InvalidFares,
		m.PipelineRunning,
		m.FileProcessingDuration,
		m.RunDuration,
		m.LastSuccess,
		m.DatasetRows,
		m.DashboardQueries,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.Collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Push sends the run metrics to a Prometheus Pushgateway. Batch runs exit
// before a scrape could happen, so the gateway holds the last run's values.
func (m *Metrics) Push(url, job string) error {
	p := push.New(url, job)
	for _, c := range m.Collectors() {
		p = p.Collector(c)
	}
	return p.Push()
}
