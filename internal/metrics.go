package internal

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels of the operations counter.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	TestimonialOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testimonial_operations_total",
			Help: "Total number of testimonial service operations",
		},
		[]string{"operation", "outcome"},
	)

	AvatarUploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "avatar_upload_bytes_total",
			Help: "Total number of avatar bytes stored",
		},
	)

	PartialSwaps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "testimonial_partial_swaps_total",
			Help: "Display order swaps that failed after the first write was applied",
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers the collectors with the default registry
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(TestimonialOperations, AvatarUploadBytes, PartialSwaps)
	})
}

// MetricsHandler serves the default registry in the Prometheus exposition format
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func observe(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	TestimonialOperations.WithLabelValues(operation, outcome).Inc()
}
