package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sourceLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_source_lookups_total",
			Help: "Total number of external source lookups.",
		},
		[]string{"source", "outcome"},
	)
	sourceLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_source_lookup_duration_seconds",
			Help:    "Histogram of external source lookup durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Total number of scan requests by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(sourceLookupsTotal)
	prometheus.MustRegister(sourceLookupDuration)
	prometheus.MustRegister(scansTotal)
}

// RecordSourceLookup records one external source call. Outcome is one of
// "hit", "miss", "error".
func RecordSourceLookup(source, outcome string, duration time.Duration) {
	sourceLookupsTotal.WithLabelValues(source, outcome).Inc()
	sourceLookupDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordScan records one scan request result: "created", "refreshed",
// "not_found".
func RecordScan(result string) {
	scansTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
