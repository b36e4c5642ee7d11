package invoice

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serviceMetrics holds Prometheus metrics for invoice processing
type serviceMetrics struct {
	extractions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	ocrResults  *prometheus.CounterVec
	duration    prometheus.Histogram
}

// registered once so tests can build many services
var (
	metricsOnce     sync.Once
	metricsInstance *serviceMetrics
	metricsRegistry = prometheus.DefaultRegisterer
)

func getServiceMetrics() *serviceMetrics {
	metricsOnce.Do(func() {
		factory := promauto.With(metricsRegistry)
		metricsInstance = &serviceMetrics{
			extractions: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "invoice_extractions_total",
				Help: "Total number of extracted records by status",
			}, []string{"status"}),
			failures: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "invoice_processing_failures_total",
				Help: "Total number of uploads that could not be processed, by reason",
			}, []string{"reason"}),
			ocrResults: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "invoice_ocr_results_total",
				Help: "Total number of OCR results by provider",
			}, []string{"provider"}),
			duration: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "invoice_processing_duration_seconds",
				Help:    "Time taken to process an uploaded invoice",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			}),
		}
	})
	return metricsInstance
}
