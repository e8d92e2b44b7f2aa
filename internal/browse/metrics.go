package browse

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics counts parse work done on behalf of requests.
type metrics struct {
	parsed   *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		parsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mccbrowse_files_parsed_total",
			Help: "Files parsed to answer requests",
		}, []string{"op"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mccbrowse_parse_errors_total",
			Help: "Files that failed to parse",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mccbrowse_parse_duration_seconds",
			Help:    "Time spent parsing a file",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"op"}),
	}
	reg.MustRegister(m.parsed, m.failed, m.duration)
	return m
}

// observe records one parse of kind op that started at start.
func (m *metrics) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.parsed.WithLabelValues(op).Inc()
	if err != nil {
		m.failed.WithLabelValues(op).Inc()
	}
}
