package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DirectoryOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fmt",
		Name:      "directory_operations_total",
		Help:      "Directory operations by operation and result",
	}, []string{"op", "result"})

	ImagePipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fmt",
		Name:      "image_pipeline_duration_seconds",
		Help:      "Duration of image pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	ImageRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fmt",
		Name:      "image_rejections_total",
		Help:      "Uploads rejected by the image pipeline",
	}, []string{"reason"})

	CredentialChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fmt",
		Name:      "credential_checks_total",
		Help:      "Credential verifications by result",
	}, []string{"result"})

	AuditPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fmt",
		Name:      "audit_publish_failures_total",
		Help:      "Directory events that could not be published",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fmt",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fmt",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
