package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/xray-txhistory/internal/handler"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	v1 := r.Group("/api/v1")

	transactions := v1.Group("/transactions")
	{
		transactions.GET("", h.TransactionHandler.GetTransactions)
		transactions.POST("/refresh", h.TransactionHandler.Refresh)
		transactions.POST("/load-more", h.TransactionHandler.LoadMore)
		transactions.GET("/:hash", h.TransactionHandler.GetTransaction)
	}

	host := v1.Group("/host")
	{
		host.GET("/state", h.HostHandler.GetState)
		host.POST("/messages", h.HostHandler.PostMessage)
		host.GET("/ws", h.HostHandler.Connect)
	}

	health := v1.Group("/health")
	{
		health.GET("/db", h.HealthHandler.Database)
		health.GET("/external", h.HealthHandler.External)
		health.GET("/jobs", h.HealthHandler.Jobs)
	}
}
