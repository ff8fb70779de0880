package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasbih",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tasbih",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasbih",
			Subsystem: "session",
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	submitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tasbih",
			Subsystem: "session",
			Name:      "append_duration_seconds",
			Help:      "Duration of append calls to the sheet endpoint.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasbih",
			Subsystem: "session",
			Name:      "fetches_total",
			Help:      "Entry list fetches by result.",
		},
		[]string{"success"},
	)

	counterEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasbih",
			Subsystem: "counter",
			Name:      "cues_total",
			Help:      "Counter cues emitted by kind.",
		},
		[]string{"cue"},
	)

	aggregateTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tasbih",
			Subsystem: "session",
			Name:      "aggregate_total",
			Help:      "Running total of all known entry counts.",
		},
	)

	mirrored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tasbih",
			Subsystem: "mirror",
			Name:      "entries_total",
			Help:      "Entries upserted into the mirror database.",
		},
	)

	mirrorTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tasbih",
			Subsystem: "mirror",
			Name:      "aggregate_total",
			Help:      "Sum of counts stored in the mirror database after the last pass.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		submissions,
		submitDuration,
		fetches,
		counterEvents,
		aggregateTotal,
		mirrored,
		mirrorTotal,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordHTTPRequest(method, route string, status int, dur time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}

func RecordSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

func RecordAppend(dur time.Duration) {
	submitDuration.Observe(dur.Seconds())
}

func RecordFetch(success bool) {
	fetches.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordCue(cue string) {
	counterEvents.WithLabelValues(cue).Inc()
}

func SetTotal(total int) {
	aggregateTotal.Set(float64(total))
}

func RecordMirrored(n int) {
	mirrored.Add(float64(n))
}

func SetMirrorTotal(total int) {
	mirrorTotal.Set(float64(total))
}
