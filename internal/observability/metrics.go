package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	streamRequestsTotal  *prometheus.CounterVec
	streamLatencySeconds prometheus.Histogram
	streamOmittedTotal   prometheus.Counter
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for the stream service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		streamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_stream_requests_total",
			Help: "Total number of stream pages served, labelled by cache outcome.",
		}, []string{"result"})

		streamLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "activity_stream_latency_seconds",
			Help:    "Latency distribution for stream page assembly.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		streamOmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activity_stream_omitted_total",
			Help: "Total number of activities dropped from pages because their object or target was gone.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(streamRequestsTotal, streamLatencySeconds, streamOmittedTotal, httpRequestsTotal, httpLatencySeconds)
	})
}

// StreamRequests exposes the page counter.
func StreamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return streamRequestsTotal
}

// StreamLatency exposes the assembly latency histogram.
func StreamLatency() prometheus.Histogram {
	RegisterMetrics()
	return streamLatencySeconds
}

// StreamOmitted exposes the dropped-record counter.
func StreamOmitted() prometheus.Counter {
	RegisterMetrics()
	return streamOmittedTotal
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
