package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propcalc/server/internal/database"
	"propcalc/server/internal/ingest"
	"propcalc/server/internal/queue"
)

func SetupRoutes(router *gin.Engine, db *database.Database, manager *ingest.Manager, txQueue *queue.TransactionQueue, logger *logrus.Logger) {
	router.Use(cors.Default())

	handler := NewHandler(db, manager, txQueue, logger)

	api := router.Group("/api")
	{
		api.GET("/transactions", handler.GetTransactions)
		api.GET("/transactions/:transaction_id", handler.GetTransaction)
		api.GET("/stats", handler.GetStats)
		api.GET("/areas/:area_id", handler.GetAreaStats)
		api.GET("/recent-sales", handler.GetRecentSales)
		api.GET("/reports", handler.GetQualityReports)
		api.GET("/runs", handler.GetRuns)
		api.GET("/sources", handler.GetSources)
		api.POST("/ingest", handler.TriggerIngest)
		api.POST("/transactions", handler.ImportTransactions)
	}
}
