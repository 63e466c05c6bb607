package routes

import (
	"eth-wallet-core/internal/handler"

	"github.com/gin-gonic/gin"
)

func RegisterWalletRoutes(rg *gin.RouterGroup, h *handler.WalletHandler) {
	walletGroup := rg.Group("/wallet")
	{
		walletGroup.GET("", h.Overview)
		walletGroup.POST("/refresh", h.Refresh)
		walletGroup.GET("/txs", h.History)
		walletGroup.GET("/txs/:txId", h.Transaction)
		walletGroup.POST("/transfer/build", h.BuildTransfer)
		walletGroup.POST("/transfer", h.Transfer)
		walletGroup.POST("/replace", h.Replace)
		walletGroup.POST("/broadcast", h.Broadcast)
		walletGroup.GET("/iban/:iban", h.ResolveIban)
	}
}
