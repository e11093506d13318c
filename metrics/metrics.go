package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arts_scrooper/models"
)

// Metrics holds the scraper collectors. Register them with a private
// registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	eventsFound   *prometheus.CounterVec
	siteFailures  *prometheus.CounterVec
	eventsAdded   prometheus.Counter
	duplicates    prometheus.Counter
	runDuration   prometheus.Summary
	lastSuccessTS prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.eventsFound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arts_scraper",
		Name:      "events_found_total",
		Help:      "Events extracted per source",
	}, []string{"source"})
	m.siteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arts_scraper",
		Name:      "site_failures_total",
		Help:      "Failed site scrapes per source",
	}, []string{"source"})
	m.eventsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arts_scraper",
		Name:      "events_added_total",
		Help:      "New events persisted by merges",
	})
	m.duplicates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arts_scraper",
		Name:      "events_duplicate_total",
		Help:      "Scraped events dropped as duplicates",
	})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "arts_scraper",
		Name:      "run_duration_seconds",
		Help:      "Time spent on a full scrape and merge",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "arts_scraper",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	m.registry.MustRegister(
		m.eventsFound, m.siteFailures, m.eventsAdded,
		m.duplicates, m.runDuration, m.lastSuccessTS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveSites(results []models.SiteResult) {
	for _, r := range results {
		if r.Err != nil {
			m.siteFailures.WithLabelValues(r.Source).Inc()
			continue
		}
		m.eventsFound.WithLabelValues(r.Source).Add(float64(len(r.Events)))
	}
}

func (m *Metrics) ObserveMerge(report *models.ScrapeReport) {
	m.eventsAdded.Add(float64(report.Added))
	m.duplicates.Add(float64(report.Duplicates))
}

func (m *Metrics) ObserveRun(elapsed time.Duration, succeeded bool, at time.Time) {
	m.runDuration.Observe(elapsed.Seconds())
	if succeeded {
		m.lastSuccessTS.Set(float64(at.Unix()))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
