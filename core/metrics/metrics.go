package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stash_ingest"

// Metrics groups every collector of the ingestion service on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	PagesFetched      prometheus.Counter
	FetchRetries      *prometheus.CounterVec
	RecordsSkipped    prometheus.Counter
	Batches           prometheus.Counter
	BatchDuration     prometheus.Histogram
	ListingsMatched   *prometheus.CounterVec
	ListingsDeduped   *prometheus.CounterVec
	DetectorErrors    *prometheus.CounterVec
	Facts             prometheus.Counter
	CatalogMismatches prometheus.Counter
	OutOfBounds       prometheus.Counter
	CatalogTemplates  prometheus.Gauge
	OutputRows        *prometheus.CounterVec
	CursorCommits     prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Feed pages fetched successfully.",
		}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Feed requests retried, by reason.",
		}, []string{"reason"}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Upstream stash records skipped because they could not be decoded.",
		}),
		Batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches drained from the stream and processed.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent detecting and extracting one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ListingsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_matched_total",
			Help:      "Listings matched by a detector after deduplication.",
		}, []string{"variant"}),
		ListingsDeduped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_deduplicated_total",
			Help:      "Listings dropped because their fingerprint was already seen.",
		}, []string{"variant"}),
		DetectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_errors_total",
			Help:      "Batches a detector could not evaluate.",
		}, []string{"variant"}),
		Facts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modifier_facts_total",
			Help:      "Modifier facts extracted.",
		}),
		CatalogMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_mismatches_total",
			Help:      "Affix lines that matched no catalog template.",
		}),
		OutOfBounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_of_bounds_rolls_total",
			Help:      "Numeric rolls outside the catalog bounds (clamped).",
		}),
		CatalogTemplates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_templates",
			Help:      "Templates in the active catalog snapshot.",
		}),
		OutputRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_rows_total",
			Help:      "Rows sent to the storage service, by kind and result.",
		}, []string{"kind", "result"}),
		CursorCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cursor_commits_total",
			Help:      "Resume cursor commits.",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PagesFetched,
		m.FetchRetries,
		m.RecordsSkipped,
		m.Batches,
		m.BatchDuration,
		m.ListingsMatched,
		m.ListingsDeduped,
		m.DetectorErrors,
		m.Facts,
		m.CatalogMismatches,
		m.OutOfBounds,
		m.CatalogTemplates,
		m.OutputRows,
		m.CursorCommits,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
