// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlJobsTotal             *prometheus.CounterVec
	crawlDurationSeconds       *prometheus.HistogramVec
	imagesRehostedTotal        *prometheus.CounterVec
	importItemsTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_jobs_total",
				Help: "Total number of crawl jobs settled, labeled by site and terminal status.",
			},
			[]string{"site", "status"},
		)

		crawlDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_extraction_duration_seconds",
				Help:    "Histogram of page extraction latencies, labeled by site.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"site"},
		)

		imagesRehostedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_images_rehosted_total",
				Help: "Total number of image rehost attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		importItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_import_items_total",
				Help: "Total number of entities persisted by bulk imports, labeled by kind.",
			},
			[]string{"kind"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCrawl records a settled crawl job. It is a no-op before Init.
func ObserveCrawl(site, status string, duration time.Duration) {
	if crawlJobsTotal == nil {
		return
	}
	sanitized := SanitizeSite(site)
	crawlJobsTotal.WithLabelValues(sanitized, status).Inc()
	crawlDurationSeconds.WithLabelValues(sanitized).Observe(duration.Seconds())
}

// ObserveRehost counts one image rehost attempt.
func ObserveRehost(success bool) {
	if imagesRehostedTotal == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	imagesRehostedTotal.WithLabelValues(outcome).Inc()
}

// ObserveImport counts entities persisted during a bulk import.
func ObserveImport(kind string, n int) {
	if n <= 0 || importItemsTotal == nil {
		return
	}
	importItemsTotal.WithLabelValues(kind).Add(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
