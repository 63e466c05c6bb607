package server

import (
	"eth-wallet-core/internal/handler"
	"eth-wallet-core/internal/server/routes"
	"eth-wallet-core/pkg/monitor"
	"eth-wallet-core/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter gatherer 为 nil 时 /metrics 使用默认注册表
func NewHTTPRouter(wallet *handler.WalletHandler, metrics *monitor.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	validator.Init()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.Middleware())

	r.GET("/health", handler.HealthCheck)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	routes.RegisterWalletRoutes(api, wallet)

	return r
}
