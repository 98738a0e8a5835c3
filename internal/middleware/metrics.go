package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	statusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"service", "category", "method", "path"},
	)
)

// HTTPMetrics HTTP 请求指标采集器
type HTTPMetrics struct {
	ServiceName string
	registered  bool
}

// NewHTTPMetrics 创建指标采集器并注册指标
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	m := &HTTPMetrics{ServiceName: serviceName}
	m.register()
	return m
}

func (m *HTTPMetrics) register() {
	if !m.registered {
		prometheus.MustRegister(requestCounter)
		prometheus.MustRegister(requestDuration)
		prometheus.MustRegister(statusCategoryCounter)
		m.registered = true
	}
}

// Middleware 采集请求量、耗时和状态分布
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		method := c.Request.Method
		// 使用路由模板而不是原始路径，避免标签爆炸
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusStr := strconv.Itoa(status)

		requestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
		requestDuration.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(time.Since(start).Seconds())

		category := ""
		if status >= 200 && status < 300 {
			category = "2xx"
		} else if status >= 400 && status < 500 {
			category = "4xx"
		} else if status >= 500 && status < 600 {
			category = "5xx"
		}
		if category != "" {
			statusCategoryCounter.WithLabelValues(m.ServiceName, category, method, path).Inc()
		}
	}
}

// Handler 暴露 /metrics 抓取端点
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
