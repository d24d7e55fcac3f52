package api

import (
	triggerDelivery "digest-backend/internal/trigger/delivery"
	"digest-backend/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	triggerHandler *triggerDelivery.TriggerHandler
	statusHandler  *StatusHandler
	config         *config.Config
	log            *zap.Logger
}

func NewHandler(invoker triggerDelivery.Invoker, backends []string, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		triggerHandler: triggerDelivery.NewTriggerHandler(invoker, log),
		statusHandler:  NewStatusHandler(backends, cfg),
		config:         cfg,
		log:            log,
	}
}

// Router builds the engine with middleware and routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Cron-Secret, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.triggerHandler, h.statusHandler, h.config)
	return r
}
