// Package metrics 定义 Prometheus 指标
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PostingViewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_posting_views_total",
			Help: "Posting views recorded, split by uniqueness.",
		},
		[]string{"kind"},
	)

	ApplicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_applications_total",
			Help: "Application attempts by outcome.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_auth_logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"result"},
	)

	AuthRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_auth_registrations_total",
			Help: "Registration attempts by outcome.",
		},
		[]string{"result"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_cache_requests_total",
			Help: "Read cache lookups by cache and result.",
		},
		[]string{"cache", "result"},
	)
)

// 常用标签值
const (
	ViewUnique = "unique"
	ViewRepeat = "repeat"

	ResultSuccess = "success"
	ResultFailure = "failure"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

// MustRegister 注册全部指标，进程内只调用一次
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		PostingViewsTotal,
		ApplicationsTotal,
		AuthLoginsTotal,
		AuthRegistrationsTotal,
		CacheRequestsTotal,
	)
}
