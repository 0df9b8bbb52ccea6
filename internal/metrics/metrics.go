// Package metrics holds the process's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readinglog"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	sinkSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_submissions_total",
		Help:      "External sink submissions by sink and result.",
	}, []string{"sink", "result"})

	wordsImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "words_imported_total",
		Help:      "Words added to word lists through bulk insert or document import.",
	})

	readingRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reading_records_total",
		Help:      "Reading records stored, by outcome.",
	}, []string{"could_read"})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSink counts one sink submission
func ObserveSink(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sinkSubmissions.WithLabelValues(sink, result).Inc()
}

// AddImportedWords counts words added in bulk
func AddImportedWords(n int) {
	wordsImported.Add(float64(n))
}

// ObserveReadingRecord counts one stored reading record
func ObserveReadingRecord(couldRead bool) {
	readingRecords.WithLabelValues(strconv.FormatBool(couldRead)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records count and latency for next under the route label
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
