package api

import (
	"net/http"

	triggerDelivery "digest-backend/internal/trigger/delivery"
	"digest-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(r *gin.Engine, triggerHandler *triggerDelivery.TriggerHandler, statusHandler *StatusHandler, cfg *config.Config) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Invocation, manual run and history (shared secret)
		triggerHandler.RegisterRoutes(api, cfg.CronSecret)

		// Operator status (shared secret)
		status := api.Group("/status")
		status.Use(triggerDelivery.SecretMiddleware(cfg.CronSecret))
		{
			status.GET("", statusHandler.GetStatus)
			status.POST("/ollama/test", statusHandler.TestOllamaConnection)
		}
	}
}
