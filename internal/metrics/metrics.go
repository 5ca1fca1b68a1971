package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// DescribeTotal counts describe gestures by outcome: "ok", "busy", or an
	// error kind such as "remote_service".
	DescribeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visionapp",
		Subsystem: "pipeline",
		Name:      "describe_total",
		Help:      "Total number of describe gestures, labeled by result.",
	}, []string{"result"})

	// DescribeDurationSeconds is capture-to-answer time of completed pipeline runs.
	DescribeDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "visionapp",
		Subsystem: "pipeline",
		Name:      "describe_duration_seconds",
		Help:      "Time from capture start to the spoken answer or error.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 20, 30, 60},
	}, []string{"backend"})

	// ReplayTotal counts long-press replays; result is "replayed" or "empty".
	ReplayTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visionapp",
		Subsystem: "pipeline",
		Name:      "replay_total",
		Help:      "Total number of replay gestures, labeled by result.",
	}, []string{"result"})

	// Busy is 1 while a describe request is in flight.
	Busy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "visionapp",
		Subsystem: "pipeline",
		Name:      "busy",
		Help:      "Whether a describe request is currently in flight.",
	})

	// UploadBytes is the size of the JPEG sent to the vision backend.
	UploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "visionapp",
		Subsystem: "pipeline",
		Name:      "upload_bytes",
		Help:      "Size in bytes of the re-encoded JPEG sent to the vision backend.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 8),
	})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			DescribeTotal,
			DescribeDurationSeconds,
			ReplayTotal,
			Busy,
			UploadBytes,
		)
	})
}
