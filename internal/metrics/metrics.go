package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iprange_requests_total",
		Help: "Total number of /ip-ranges requests reaching the resolver",
	}, []string{"region", "ip_type"})
	RequestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "iprange_request_duration_ms",
		Help:    "Resolver duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iprange_empty_results_total",
		Help: "Total number of successful responses with no matching prefix",
	})
	FailedResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iprange_failed_results_total",
		Help: "Total number of responses replaced by a fetch failure message",
	}, []string{"kind"})
	ValidationErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iprange_validation_errors_total",
		Help: "Total number of rejected request parameters",
	}, []string{"param"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iprange_cache_hits_total",
		Help: "Total range document cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iprange_cache_misses_total",
		Help: "Total range document cache misses (upstream fetch attempted)",
	})
	UpstreamFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iprange_upstream_fetch_total",
		Help: "Upstream range document fetches by outcome",
	}, []string{"outcome"})
	UpstreamDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "iprange_upstream_duration_ms",
		Help:    "Upstream fetch duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iprange_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"limiter"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(FailedResultsTotal)
	prometheus.MustRegister(ValidationErrorsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(UpstreamFetchTotal)
	prometheus.MustRegister(UpstreamDurationMs)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标处理器
// 背景：在主入口挂载到 {API_BASE}/metrics 供抓取
func Handler() http.Handler { return promhttp.Handler() }
