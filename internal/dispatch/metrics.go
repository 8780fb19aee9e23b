package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/statusboard/internal/probe"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statusboard",
		Name:      "checks_total",
		Help:      "Check results by status.",
	}, []string{"status"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "statusboard",
		Name:      "check_cycle_duration_seconds",
		Help:      "Wall time of a full check cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	cycleEndpoints = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "statusboard",
		Name:      "check_cycle_endpoints",
		Help:      "Endpoints probed in the last cycle.",
	})
)

func observeCycle(results []probe.Result, elapsed time.Duration) {
	for _, r := range results {
		checksTotal.WithLabelValues(string(r.Status)).Inc()
	}
	cycleDuration.Observe(elapsed.Seconds())
	cycleEndpoints.Set(float64(len(results)))
}
