package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildflower_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the update pipeline.
type Metrics struct {
	// Fetch metrics.
	PagesFetched    prometheus.Counter
	PageFetchErrors prometheus.Counter
	SnapshotCache   *prometheus.CounterVec // labels: result={fresh,stale,missing,forced}

	// Extraction metrics.
	Extractions        *prometheus.CounterVec // labels: kind={nothing_to_process,reports,raw_text,failure}
	ReportsExtracted   prometheus.Counter
	ReportsQuarantined prometheus.Counter
	LLMDuration        prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: layer={memory,sqlite}, result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Run metrics.
	ReportsPersisted prometheus.Gauge
	MarkersRendered  prometheus.Gauge
	RunDuration      prometheus.Histogram
	LastSuccess      prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Report board pages fetched.",
		}),
		PageFetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetch_errors_total",
			Help:      "Report board page fetches that failed.",
		}),
		SnapshotCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_total",
			Help:      "Persisted report set lookups by freshness result.",
		}, []string{"result"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Page extractions by outcome kind.",
		}, []string{"kind"}),
		ReportsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_extracted_total",
			Help:      "Reports parsed from LLM output.",
		}),
		ReportsQuarantined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_quarantined_total",
			Help:      "Report records rejected for a missing or malformed date.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_duration_seconds",
			Help:      "LLM extraction call duration in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Google Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ReportsPersisted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_persisted",
			Help:      "Reports in the persisted set after the last fetch cycle.",
		}),
		MarkersRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers_rendered",
			Help:      "Map markers in the last rendered page.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-geocode-render run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful render.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PagesFetched,
		m.PageFetchErrors,
		m.SnapshotCache,
		m.Extractions,
		m.ReportsExtracted,
		m.ReportsQuarantined,
		m.LLMDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.ReportsPersisted,
		m.MarkersRendered,
		m.RunDuration,
		m.LastSuccess,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// WriteTextfile writes the default registry in the node-exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
