package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 所有 Prometheus 指标，通过依赖注入传给需要的组件
type Metrics struct {
	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 钱包
	txSentTotal          *prometheus.CounterVec
	validationFailures   *prometheus.CounterVec
	indexerCallDuration  *prometheus.HistogramVec
	loadDuration         prometheus.Histogram
	feeQuote             *prometheus.GaugeVec
	balance              *prometheus.GaugeVec
	eventsPublishedTotal *prometheus.CounterVec
}

// NewMetrics registry 为 nil 时使用 prometheus.DefaultRegisterer
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "path"}),

		txSentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_sent_total",
			Help: "Total number of transactions submitted by the wallet",
		}, []string{"asset", "kind", "status"}),
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_validation_failures_total",
			Help: "Transactions rejected before signing, by reason",
		}, []string{"asset", "reason"}),
		indexerCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_indexer_call_duration_seconds",
			Help:    "Duration of indexer API calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "status"}),
		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_load_duration_seconds",
			Help:    "Duration of a full wallet state load",
			Buckets: prometheus.DefBuckets,
		}),
		feeQuote: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wallet_fee_quote_wei",
			Help: "Latest fee quote per gas unit",
		}, []string{"field"}),
		balance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wallet_balance",
			Help: "Last loaded wallet balance in base units (float approximation)",
		}, []string{"asset", "kind"}),
		eventsPublishedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_events_published_total",
			Help: "Total number of wallet events published to the message queue",
		}, []string{"topic", "status"}),
	}
}

// Middleware 记录 HTTP 请求量和耗时
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath() // 使用路由模板而不是具体路径

		c.Next()

		// 忽略未匹配路由
		if path == "" || m == nil {
			return
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// 以下方法允许 m 为 nil，未启用监控时直接跳过

func (m *Metrics) RecordTxSent(asset, kind string, err error) {
	if m == nil {
		return
	}
	m.txSentTotal.WithLabelValues(asset, kind, statusOf(err)).Inc()
}

func (m *Metrics) RecordValidationFailure(asset, reason string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(asset, reason).Inc()
}

func (m *Metrics) RecordIndexerCall(method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.indexerCallDuration.WithLabelValues(method, statusOf(err)).Observe(duration.Seconds())
}

func (m *Metrics) RecordLoad(duration time.Duration) {
	if m == nil {
		return
	}
	m.loadDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordFeeQuote(field string, value float64) {
	if m == nil {
		return
	}
	m.feeQuote.WithLabelValues(field).Set(value)
}

func (m *Metrics) RecordBalance(asset, kind string, value float64) {
	if m == nil {
		return
	}
	m.balance.WithLabelValues(asset, kind).Set(value)
}

func (m *Metrics) RecordEventPublished(topic string, err error) {
	if m == nil {
		return
	}
	m.eventsPublishedTotal.WithLabelValues(topic, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
