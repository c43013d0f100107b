// Package metrics registers the Prometheus collectors exposed at
// config.Metrics.Path, directly adapted from the teacher's metrics
// package (same NAMESPACE/SUBSYSTEM/Init/errors.Register-and-collect
// shape) trimmed to counters this module's components actually
// increment: HTTP dispatch, walker visits, storage ops, webhook
// dispatch.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const (
	NAMESPACE = "jvspatial"
	SUBSYSTEM = ""
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	WalkerVisitsTotal    *prometheus.CounterVec
	WalkerDispatchLatency prometheus.Histogram
	WalkerLimitHitsTotal *prometheus.CounterVec

	StorageOpDuration *prometheus.HistogramVec
	StorageOpErrors   *prometheus.CounterVec

	WebhookDispatchTotal *prometheus.CounterVec

	RateLimitRejectedTotal *prometheus.CounterVec
)

func Init() error {
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled by the endpoint dispatcher",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WalkerVisitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "walker_visits_total",
		Help:      "Total number of node/edge visits performed by walker dispatch",
	}, []string{"walker_class"})
	WalkerDispatchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "walker_dispatch_duration_seconds",
		Help:      "Wall-clock duration of a full Spawn-to-completion walk",
		Buckets:   prometheus.DefBuckets,
	})
	WalkerLimitHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "walker_limit_hits_total",
		Help:      "Total number of walks aborted by a depth or total-visit limit",
	}, []string{"reason"})

	StorageOpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "storage_op_duration_seconds",
		Help:      "Storage adapter operation latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "op"})
	StorageOpErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "storage_op_errors_total",
		Help:      "Total number of storage adapter operation errors",
	}, []string{"backend", "op"})

	WebhookDispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "webhook_dispatch_total",
		Help:      "Total number of webhook handler dispatches",
	}, []string{"endpoint", "result"})

	RateLimitRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: NAMESPACE,
		Subsystem: SUBSYSTEM,
		Name:      "rate_limit_rejected_total",
		Help:      "Total number of requests rejected by the rate limiter",
	}, []string{"path"})

	errs := make([]error, 0, 10)
	errs = append(errs, prometheus.Register(HTTPRequestsTotal))
	errs = append(errs, prometheus.Register(HTTPRequestDuration))
	errs = append(errs, prometheus.Register(WalkerVisitsTotal))
	errs = append(errs, prometheus.Register(WalkerDispatchLatency))
	errs = append(errs, prometheus.Register(WalkerLimitHitsTotal))
	errs = append(errs, prometheus.Register(StorageOpDuration))
	errs = append(errs, prometheus.Register(StorageOpErrors))
	errs = append(errs, prometheus.Register(WebhookDispatchTotal))
	errs = append(errs, prometheus.Register(RateLimitRejectedTotal))
	errs = append(errs, prometheus.Register(collectors.NewBuildInfoCollector()))
	errs = append(errs, prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: NAMESPACE})))

	return errors.WithStack(multierr.Combine(errs...))
}
