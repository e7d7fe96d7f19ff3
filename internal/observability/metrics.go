package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scenesave",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scenesave",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	engineOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scenesave",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Save and load operations by result.",
		},
		[]string{"op", "result"},
	)
	engineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scenesave",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Save and load duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "result"},
	)
	recordFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scenesave",
			Subsystem: "engine",
			Name:      "record_failures_total",
			Help:      "Records skipped during save or load.",
		},
		[]string{"op", "kind"},
	)
	blobBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scenesave",
			Subsystem: "engine",
			Name:      "blob_bytes",
			Help:      "Encoded save size in bytes before compression.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		},
		[]string{"op"},
	)
	slotOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scenesave",
			Subsystem: "slots",
			Name:      "operations_total",
			Help:      "Save slot operations by backend.",
		},
		[]string{"backend", "op", "success"},
	)
	slotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scenesave",
			Subsystem: "slots",
			Name:      "operation_duration_seconds",
			Help:      "Save slot operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "op", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			engineOperations, engineDuration, recordFailures, blobBytes,
			slotOperations, slotDuration,
		)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordOperation counts one engine save or load. result is "ok", "partial"
// or "failed".
func RecordOperation(op, result string, duration time.Duration) {
	RegisterMetrics()
	engineOperations.WithLabelValues(op, result).Inc()
	engineDuration.WithLabelValues(op, result).Observe(duration.Seconds())
}

func RecordRecordFailure(op, kind string) {
	RegisterMetrics()
	recordFailures.WithLabelValues(op, kind).Inc()
}

func RecordBlobSize(op string, size int) {
	RegisterMetrics()
	blobBytes.WithLabelValues(op).Observe(float64(size))
}

func RecordSlotOperation(backend, op string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	slotOperations.WithLabelValues(backend, op, successLabel).Inc()
	slotDuration.WithLabelValues(backend, op, successLabel).Observe(duration.Seconds())
}
